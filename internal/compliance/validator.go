package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/portal"
)

const (
	clientNotConfiguredMessageConstant    = "compliance portal client not configured"
	notifierNotConfiguredMessageConstant  = "compliance notifier not configured"
	queryNotConfiguredMessageConstant     = "compliance query not configured"
	referenceNotConfiguredMessageConstant = "compliance reference item not configured"
	referenceLookupTemplateConstant       = "unable to load reference item %s: %w"
	referenceThumbnailTemplateConstant    = "unable to load reference thumbnail of %s: %w"
	searchFailedTemplateConstant          = "compliance search failed: %w"
	ownerLookupTemplateConstant           = "unable to resolve email of %s: %w"
	ownerWithoutEmailTemplateConstant     = "owner %s has no email address"
	subjectTemplateConstant               = "Portal item %q does not meet the %s requirement"
	thumbnailBodyTemplateConstant         = "The item %q (%s) does not use the standard thumbnail. Please replace it with the organization thumbnail.\n"
	descriptionBodyTemplateConstant       = "The item %q (%s) needs a description longer than %d characters.\n"
	licenseBodyTemplateConstant           = "The item %q (%s) must carry the organization license text in its terms of use.\n"
	itemCheckFailedMessageConstant        = "unable to check item"
	violationMessageConstant              = "item violates governance rule"
	notificationFailedMessageConstant     = "notification not delivered"
	validationCompletedMessageConstant    = "governance validation completed"
	logFieldItemConstant                  = "item"
	logFieldOwnerConstant                 = "owner"
	logFieldRuleConstant                  = "rule"
	logFieldCheckedConstant               = "checked"
	logFieldViolationsConstant            = "violations"
	logFieldNotifiedConstant              = "notified"
)

var (
	// ErrPortalClientNotConfigured indicates the validator has no portal client.
	ErrPortalClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrNotifierNotConfigured indicates the validator has no notifier.
	ErrNotifierNotConfigured = errors.New(notifierNotConfiguredMessageConstant)
	// ErrQueryNotConfigured indicates no classification query is configured.
	ErrQueryNotConfigured = errors.New(queryNotConfiguredMessageConstant)
	// ErrReferenceItemNotConfigured indicates no reference thumbnail item is configured.
	ErrReferenceItemNotConfigured = errors.New(referenceNotConfiguredMessageConstant)
)

// PortalClient is the subset of portal operations the validator needs.
type PortalClient interface {
	SearchItemsMatching(executionContext context.Context, query string) ([]portal.Item, error)
	Item(executionContext context.Context, itemID string) (portal.Item, error)
	ItemThumbnail(executionContext context.Context, itemID string, thumbnailPath string) ([]byte, error)
	User(executionContext context.Context, username string) (portal.User, error)
}

// Finding records one violated rule of one item.
type Finding struct {
	ItemID    string
	ItemTitle string
	Owner     string
	Rule      Rule
	Notified  bool
}

// Result summarizes a validation pass.
type Result struct {
	ItemsChecked         int
	ItemsFailed          int
	Findings             []Finding
	NotificationsSent    int
	NotificationFailures int
}

// Validator evaluates governance rules for every classified item.
type Validator struct {
	client        PortalClient
	notifier      Notifier
	logger        *zap.Logger
	configuration Configuration
}

// NewValidator validates collaborators and constructs a Validator.
func NewValidator(client PortalClient, notifier Notifier, logger *zap.Logger, configuration Configuration) (*Validator, error) {
	if client == nil {
		return nil, ErrPortalClientNotConfigured
	}
	if notifier == nil {
		return nil, ErrNotifierNotConfigured
	}
	if len(strings.TrimSpace(configuration.Query)) == 0 {
		return nil, ErrQueryNotConfigured
	}
	if len(strings.TrimSpace(configuration.ReferenceItemID)) == 0 {
		return nil, ErrReferenceItemNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{client: client, notifier: notifier, logger: logger, configuration: configuration.Sanitize()}, nil
}

// Validate checks every item matching the classification query and sends one notification per violation.
func (validator *Validator) Validate(executionContext context.Context) (Result, error) {
	policy, policyError := validator.loadPolicy(executionContext)
	if policyError != nil {
		return Result{}, policyError
	}

	items, searchError := validator.client.SearchItemsMatching(executionContext, validator.configuration.Query)
	if searchError != nil {
		return Result{}, fmt.Errorf(searchFailedTemplateConstant, searchError)
	}

	result := Result{}
	ownerEmails := map[string]string{}
	for _, item := range items {
		evidence, evidenceError := validator.collectEvidence(executionContext, item)
		if evidenceError != nil {
			result.ItemsFailed++
			validator.logger.Warn(itemCheckFailedMessageConstant, zap.String(logFieldItemConstant, item.ID), zap.Error(evidenceError))
			continue
		}
		result.ItemsChecked++

		for _, rule := range policy.Evaluate(evidence) {
			finding := Finding{ItemID: item.ID, ItemTitle: item.Title, Owner: item.Owner, Rule: rule}
			validator.logger.Info(violationMessageConstant, zap.String(logFieldItemConstant, item.ID), zap.String(logFieldOwnerConstant, item.Owner), zap.String(logFieldRuleConstant, string(rule)))

			notifyError := validator.notify(executionContext, item, rule, policy, ownerEmails)
			if notifyError != nil {
				result.NotificationFailures++
				validator.logger.Error(notificationFailedMessageConstant, zap.String(logFieldItemConstant, item.ID), zap.String(logFieldRuleConstant, string(rule)), zap.Error(notifyError))
			} else {
				finding.Notified = true
				result.NotificationsSent++
			}
			result.Findings = append(result.Findings, finding)
		}
	}

	validator.logger.Info(
		validationCompletedMessageConstant,
		zap.Int(logFieldCheckedConstant, result.ItemsChecked),
		zap.Int(logFieldViolationsConstant, len(result.Findings)),
		zap.Int(logFieldNotifiedConstant, result.NotificationsSent),
	)
	return result, nil
}

func (validator *Validator) loadPolicy(executionContext context.Context) (Policy, error) {
	referenceItemID := validator.configuration.ReferenceItemID
	referenceItem, referenceError := validator.client.Item(executionContext, referenceItemID)
	if referenceError != nil {
		return Policy{}, fmt.Errorf(referenceLookupTemplateConstant, referenceItemID, referenceError)
	}
	referenceThumbnail, thumbnailError := validator.client.ItemThumbnail(executionContext, referenceItemID, referenceItem.Thumbnail)
	if thumbnailError != nil {
		return Policy{}, fmt.Errorf(referenceThumbnailTemplateConstant, referenceItemID, thumbnailError)
	}
	return Policy{
		ReferenceThumbnail:       referenceThumbnail,
		MinimumDescriptionLength: validator.configuration.MinimumDescriptionLength,
		LicenseText:              validator.configuration.LicenseText,
	}, nil
}

func (validator *Validator) collectEvidence(executionContext context.Context, item portal.Item) (ItemEvidence, error) {
	evidence := ItemEvidence{Description: item.Description, LicenseInfo: item.LicenseInfo}
	if len(item.Thumbnail) == 0 {
		return evidence, nil
	}
	thumbnail, thumbnailError := validator.client.ItemThumbnail(executionContext, item.ID, item.Thumbnail)
	if thumbnailError != nil {
		return ItemEvidence{}, thumbnailError
	}
	evidence.Thumbnail = thumbnail
	return evidence, nil
}

func (validator *Validator) notify(executionContext context.Context, item portal.Item, rule Rule, policy Policy, ownerEmails map[string]string) error {
	recipient, known := ownerEmails[item.Owner]
	if !known {
		owner, ownerError := validator.client.User(executionContext, item.Owner)
		if ownerError != nil {
			return fmt.Errorf(ownerLookupTemplateConstant, item.Owner, ownerError)
		}
		recipient = strings.TrimSpace(owner.Email)
		ownerEmails[item.Owner] = recipient
	}
	if len(recipient) == 0 {
		return fmt.Errorf(ownerWithoutEmailTemplateConstant, item.Owner)
	}

	return validator.notifier.Notify(executionContext, Notification{
		Recipient: recipient,
		Subject:   fmt.Sprintf(subjectTemplateConstant, item.Title, rule),
		Body:      notificationBody(item, rule, policy),
		ItemID:    item.ID,
		Rule:      rule,
	})
}

func notificationBody(item portal.Item, rule Rule, policy Policy) string {
	switch rule {
	case RuleThumbnail:
		return fmt.Sprintf(thumbnailBodyTemplateConstant, item.Title, item.ID)
	case RuleDescription:
		return fmt.Sprintf(descriptionBodyTemplateConstant, item.Title, item.ID, policy.MinimumDescriptionLength)
	default:
		return fmt.Sprintf(licenseBodyTemplateConstant, item.Title, item.ID)
	}
}
