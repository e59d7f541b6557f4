package portal

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	sharingRestPathSuffixConstant          = "/sharing/rest"
	generateTokenPathConstant              = "generateToken"
	userSearchPathConstant                 = "portals/self/users/search"
	roleCatalogPathConstant                = "portals/self/roles"
	groupSearchPathConstant                = "community/groups"
	itemSearchPathConstant                 = "search"
	communityUserPathTemplateConstant      = "community/users/%s"
	userContentPathTemplateConstant        = "content/users/%s"
	userFolderContentPathTemplateConstant  = "content/users/%s/%s"
	groupMembersPathTemplateConstant       = "community/groups/%s/users"
	groupContentPathTemplateConstant       = "content/groups/%s"
	itemGroupsPathTemplateConstant         = "content/items/%s/groups"
	itemPathTemplateConstant               = "content/items/%s"
	itemThumbnailPathTemplateConstant      = "content/items/%s/info/%s"
	formatParameterConstant                = "f"
	formatJSONValueConstant                = "json"
	tokenParameterConstant                 = "token"
	queryParameterConstant                 = "q"
	startParameterConstant                 = "start"
	numParameterConstant                   = "num"
	usernameParameterConstant              = "username"
	passwordParameterConstant              = "password"
	clientParameterConstant                = "client"
	refererParameterConstant               = "referer"
	expirationParameterConstant            = "expiration"
	refererClientValueConstant             = "referer"
	tokenExpirationMinutesConstant         = "120"
	firstPageStartConstant                 = 1
	lastPageMarkerConstant                 = -1
	configurationMissingURLMessageConstant = "portal url not configured"
	requestFailedTemplateConstant          = "portal request %s failed: %w"
	unexpectedStatusTemplateConstant       = "portal request %s returned status %d"
	decodeFailedTemplateConstant           = "portal response for %s could not be decoded: %w"
	apiErrorTemplateConstant               = "portal error %d: %s"
	apiErrorWithDetailsTemplateConstant    = "portal error %d: %s (%s)"
	authenticationFailedTemplateConstant   = "portal authentication failed: %w"
	emptyTokenMessageConstant              = "portal returned an empty token"
	detailsSeparatorConstant               = "; "
	logFieldPathConstant                   = "path"
	logFieldCountConstant                  = "count"
	authenticatedMessageConstant           = "authenticated with portal"
	searchCompletedMessageConstant         = "portal search completed"
	portalRequestMessageConstant           = "portal request"
)

// ErrURLNotConfigured indicates the portal URL is missing.
var ErrURLNotConfigured = errors.New(configurationMissingURLMessageConstant)

// APIError carries an error envelope returned by the portal with a successful HTTP status.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Error describes the portal error.
func (apiError APIError) Error() string {
	if len(apiError.Details) == 0 {
		return fmt.Sprintf(apiErrorTemplateConstant, apiError.Code, apiError.Message)
	}
	return fmt.Sprintf(apiErrorWithDetailsTemplateConstant, apiError.Code, apiError.Message, strings.Join(apiError.Details, detailsSeparatorConstant))
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

type tokenResponse struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

type pagedResponse[Entry any] struct {
	Total     int     `json:"total"`
	Start     int     `json:"start"`
	Num       int     `json:"num"`
	NextStart int     `json:"nextStart"`
	Results   []Entry `json:"results"`
	Items     []Entry `json:"items"`
}

func (page pagedResponse[Entry]) entries() []Entry {
	if len(page.Results) > 0 {
		return page.Results
	}
	return page.Items
}

type roleCatalogResponse struct {
	Roles     []Role `json:"roles"`
	NextStart int    `json:"nextStart"`
}

type communityUserResponse struct {
	User
	Groups []Group `json:"groups"`
}

type userContentResponse struct {
	Items     []Item   `json:"items"`
	Folders   []Folder `json:"folders"`
	NextStart int      `json:"nextStart"`
}

// Client talks to the portal sharing REST API.
type Client struct {
	httpClient    *resty.Client
	configuration Configuration
	logger        *zap.Logger
}

// NewClient constructs a portal client for the configured URL.
func NewClient(configuration Configuration, logger *zap.Logger) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(configuration.URL), "/")
	if len(trimmedURL) == 0 {
		return nil, ErrURLNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sanitizedConfiguration := configuration.Sanitize()
	httpClient := resty.New().
		SetBaseURL(trimmedURL+sharingRestPathSuffixConstant).
		SetTimeout(sanitizedConfiguration.Timeout).
		SetQueryParam(formatParameterConstant, formatJSONValueConstant)
	if !sanitizedConfiguration.VerifyCertificate {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{httpClient: httpClient, configuration: sanitizedConfiguration, logger: logger}, nil
}

// BaseURL returns the portal URL without the sharing REST suffix.
func (client *Client) BaseURL() string {
	return strings.TrimSuffix(client.httpClient.BaseURL, sharingRestPathSuffixConstant)
}

// Authenticate exchanges the configured credentials for a token attached to subsequent requests.
// Anonymous access is used when no username is configured.
func (client *Client) Authenticate(executionContext context.Context) error {
	if len(strings.TrimSpace(client.configuration.Username)) == 0 {
		return nil
	}

	referer := client.configuration.Referer
	if len(referer) == 0 {
		referer = client.BaseURL()
	}

	response, requestError := client.httpClient.R().
		SetContext(executionContext).
		SetFormData(map[string]string{
			usernameParameterConstant:   client.configuration.Username,
			passwordParameterConstant:   client.configuration.Password,
			clientParameterConstant:     refererClientValueConstant,
			refererParameterConstant:    referer,
			expirationParameterConstant: tokenExpirationMinutesConstant,
			formatParameterConstant:     formatJSONValueConstant,
		}).
		Post(generateTokenPathConstant)

	var token tokenResponse
	if decodeError := decodeResponse(generateTokenPathConstant, response, requestError, &token); decodeError != nil {
		return fmt.Errorf(authenticationFailedTemplateConstant, decodeError)
	}
	if len(token.Token) == 0 {
		return fmt.Errorf(authenticationFailedTemplateConstant, errors.New(emptyTokenMessageConstant))
	}

	client.httpClient.SetQueryParam(tokenParameterConstant, token.Token)
	client.logger.Info(authenticatedMessageConstant, zap.String(usernameParameterConstant, client.configuration.Username))
	return nil
}

// SearchUsers returns every user matching the configured user query.
func (client *Client) SearchUsers(executionContext context.Context) ([]User, error) {
	return searchAll[User](executionContext, client, userSearchPathConstant, client.configuration.UserQuery, client.configuration.MaxItems)
}

// SearchGroups returns every group matching the configured group query.
func (client *Client) SearchGroups(executionContext context.Context) ([]Group, error) {
	return searchAll[Group](executionContext, client, groupSearchPathConstant, client.configuration.GroupQuery, client.configuration.MaxItems)
}

// SearchItems returns every item matching the configured item query, capped at the configured maximum.
func (client *Client) SearchItems(executionContext context.Context) ([]Item, error) {
	return client.SearchItemsMatching(executionContext, client.configuration.ItemQuery)
}

// SearchItemsMatching returns every item matching query, capped at the configured maximum.
func (client *Client) SearchItemsMatching(executionContext context.Context, query string) ([]Item, error) {
	return searchAll[Item](executionContext, client, itemSearchPathConstant, query, client.configuration.MaxItems)
}

// Roles returns the full role catalog.
func (client *Client) Roles(executionContext context.Context) ([]Role, error) {
	roles := []Role{}
	start := firstPageStartConstant
	for {
		var page roleCatalogResponse
		if requestError := client.getJSON(executionContext, roleCatalogPathConstant, pageParameters(start, client.configuration.PageSize), &page); requestError != nil {
			return nil, requestError
		}
		roles = append(roles, page.Roles...)
		if page.NextStart <= 0 || page.NextStart == start {
			return roles, nil
		}
		start = page.NextStart
	}
}

// UserGroups returns the groups a user belongs to.
func (client *Client) UserGroups(executionContext context.Context, username string) ([]Group, error) {
	var communityUser communityUserResponse
	requestPath := fmt.Sprintf(communityUserPathTemplateConstant, url.PathEscape(username))
	if requestError := client.getJSON(executionContext, requestPath, nil, &communityUser); requestError != nil {
		return nil, requestError
	}
	return communityUser.Groups, nil
}

// User returns the profile of a single user.
func (client *Client) User(executionContext context.Context, username string) (User, error) {
	var communityUser communityUserResponse
	requestPath := fmt.Sprintf(communityUserPathTemplateConstant, url.PathEscape(username))
	if requestError := client.getJSON(executionContext, requestPath, nil, &communityUser); requestError != nil {
		return User{}, requestError
	}
	return communityUser.User, nil
}

// Item returns the metadata of a single item.
func (client *Client) Item(executionContext context.Context, itemID string) (Item, error) {
	var item Item
	requestPath := fmt.Sprintf(itemPathTemplateConstant, url.PathEscape(itemID))
	if requestError := client.getJSON(executionContext, requestPath, nil, &item); requestError != nil {
		return Item{}, requestError
	}
	return item, nil
}

// UserFolders returns the personal folders of a user.
func (client *Client) UserFolders(executionContext context.Context, username string) ([]Folder, error) {
	var content userContentResponse
	requestPath := fmt.Sprintf(userContentPathTemplateConstant, url.PathEscape(username))
	if requestError := client.getJSON(executionContext, requestPath, pageParameters(firstPageStartConstant, client.configuration.PageSize), &content); requestError != nil {
		return nil, requestError
	}
	return content.Folders, nil
}

// UserRootItems returns the items a user owns outside of any folder.
func (client *Client) UserRootItems(executionContext context.Context, username string) ([]Item, error) {
	requestPath := fmt.Sprintf(userContentPathTemplateConstant, url.PathEscape(username))
	return listAll[Item](executionContext, client, requestPath)
}

// UserFolderItems returns the items stored in one personal folder.
func (client *Client) UserFolderItems(executionContext context.Context, username string, folderID string) ([]Item, error) {
	requestPath := fmt.Sprintf(userFolderContentPathTemplateConstant, url.PathEscape(username), url.PathEscape(folderID))
	return listAll[Item](executionContext, client, requestPath)
}

// GroupMembers returns the owner, administrators, and members of a group.
func (client *Client) GroupMembers(executionContext context.Context, groupID string) (GroupMembers, error) {
	var members GroupMembers
	requestPath := fmt.Sprintf(groupMembersPathTemplateConstant, url.PathEscape(groupID))
	if requestError := client.getJSON(executionContext, requestPath, nil, &members); requestError != nil {
		return GroupMembers{}, requestError
	}
	return members, nil
}

// GroupContent returns the items shared with a group.
func (client *Client) GroupContent(executionContext context.Context, groupID string) ([]Item, error) {
	requestPath := fmt.Sprintf(groupContentPathTemplateConstant, url.PathEscape(groupID))
	return listAll[Item](executionContext, client, requestPath)
}

// ItemGroups returns the groups an item is shared with.
func (client *Client) ItemGroups(executionContext context.Context, itemID string) (ItemGroupSharing, error) {
	var sharing ItemGroupSharing
	requestPath := fmt.Sprintf(itemGroupsPathTemplateConstant, url.PathEscape(itemID))
	if requestError := client.getJSON(executionContext, requestPath, nil, &sharing); requestError != nil {
		return ItemGroupSharing{}, requestError
	}
	return sharing, nil
}

// ItemThumbnail downloads the thumbnail image bytes of an item.
func (client *Client) ItemThumbnail(executionContext context.Context, itemID string, thumbnailPath string) ([]byte, error) {
	requestPath := fmt.Sprintf(itemThumbnailPathTemplateConstant, url.PathEscape(itemID), strings.TrimLeft(thumbnailPath, "/"))
	response, requestError := client.httpClient.R().SetContext(executionContext).Get(requestPath)
	if requestError != nil {
		return nil, fmt.Errorf(requestFailedTemplateConstant, requestPath, requestError)
	}
	if response.IsError() {
		return nil, fmt.Errorf(unexpectedStatusTemplateConstant, requestPath, response.StatusCode())
	}
	return response.Body(), nil
}

// ItemHomepage returns the portal page URL of an item.
func (client *Client) ItemHomepage(itemID string) string {
	return client.BaseURL() + "/home/item.html?id=" + url.QueryEscape(itemID)
}

func (client *Client) getJSON(executionContext context.Context, requestPath string, parameters map[string]string, target any) error {
	request := client.httpClient.R().SetContext(executionContext)
	if len(parameters) > 0 {
		request.SetQueryParams(parameters)
	}
	response, requestError := request.Get(requestPath)
	client.logger.Debug(portalRequestMessageConstant, zap.String(logFieldPathConstant, requestPath))
	return decodeResponse(requestPath, response, requestError, target)
}

func decodeResponse(requestPath string, response *resty.Response, requestError error, target any) error {
	if requestError != nil {
		return fmt.Errorf(requestFailedTemplateConstant, requestPath, requestError)
	}
	if response.IsError() {
		return fmt.Errorf(unexpectedStatusTemplateConstant, requestPath, response.StatusCode())
	}

	var envelope errorEnvelope
	if envelopeError := json.Unmarshal(response.Body(), &envelope); envelopeError != nil {
		return fmt.Errorf(decodeFailedTemplateConstant, requestPath, envelopeError)
	}
	if envelope.Error != nil {
		return *envelope.Error
	}

	if decodeError := json.Unmarshal(response.Body(), target); decodeError != nil {
		return fmt.Errorf(decodeFailedTemplateConstant, requestPath, decodeError)
	}
	return nil
}

func searchAll[Entry any](executionContext context.Context, client *Client, requestPath string, query string, maxEntries int) ([]Entry, error) {
	collected := []Entry{}
	start := firstPageStartConstant
	for {
		parameters := pageParameters(start, client.configuration.PageSize)
		parameters[queryParameterConstant] = query

		var page pagedResponse[Entry]
		if requestError := client.getJSON(executionContext, requestPath, parameters, &page); requestError != nil {
			return nil, requestError
		}
		collected = append(collected, page.entries()...)

		if maxEntries > 0 && len(collected) >= maxEntries {
			collected = collected[:maxEntries]
			break
		}
		if page.NextStart == lastPageMarkerConstant || page.NextStart <= start {
			break
		}
		start = page.NextStart
	}
	client.logger.Info(searchCompletedMessageConstant, zap.String(logFieldPathConstant, requestPath), zap.Int(logFieldCountConstant, len(collected)))
	return collected, nil
}

func listAll[Entry any](executionContext context.Context, client *Client, requestPath string) ([]Entry, error) {
	collected := []Entry{}
	start := firstPageStartConstant
	for {
		var page pagedResponse[Entry]
		if requestError := client.getJSON(executionContext, requestPath, pageParameters(start, client.configuration.PageSize), &page); requestError != nil {
			return nil, requestError
		}
		collected = append(collected, page.entries()...)
		if page.NextStart == lastPageMarkerConstant || page.NextStart <= start {
			return collected, nil
		}
		start = page.NextStart
	}
}

func pageParameters(start int, pageSize int) map[string]string {
	return map[string]string{
		startParameterConstant: strconv.Itoa(start),
		numParameterConstant:   strconv.Itoa(pageSize),
	}
}
