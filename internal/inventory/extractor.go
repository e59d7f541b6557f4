package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/portal"
	"github.com/temirov/portalaudit/internal/tabular"
)

const (
	// UsersFileName is the users output file.
	UsersFileName = "users.csv"
	// GroupsFileName is the groups output file.
	GroupsFileName = "groups.csv"
	// ItemsFileName is the items output file.
	ItemsFileName = "items.csv"

	neverLoggedInTimestampConstant        = -1
	portalAccessPublicConstant            = "public"
	portalAccessOrganizationConstant      = "org"
	clientNotConfiguredMessageConstant    = "inventory portal client not configured"
	outputNotConfiguredMessageConstant    = "inventory output directory not configured"
	searchFailedTemplateConstant          = "%s search failed: %w"
	writeFailedTemplateConstant           = "unable to write %s: %w"
	roleCatalogFailedTemplateConstant     = "role catalog lookup failed: %w"
	userGroupsFailedTemplateConstant      = "groups of user %s: %w"
	userRootItemsFailedTemplateConstant   = "root items of user %s: %w"
	userFoldersFailedTemplateConstant     = "folders of user %s: %w"
	userFolderItemsFailedTemplateConstant = "items of user %s in folder %s: %w"
	groupMembersFailedTemplateConstant    = "members of group %s: %w"
	groupContentFailedTemplateConstant    = "content of group %s: %w"
	itemGroupsFailedTemplateConstant      = "sharing of item %s: %w"
	entityUsersConstant                   = "users"
	entityGroupsConstant                  = "groups"
	entityItemsConstant                   = "items"
	rowSkippedMessageConstant             = "skipping inventory row"
	fileWrittenMessageConstant            = "inventory file written"
	extractionStartedMessageConstant      = "querying the portal"
	logFieldEntityConstant                = "entity"
	logFieldFileConstant                  = "file"
	logFieldRowsConstant                  = "rows"
	logFieldSkippedConstant               = "skipped"
)

var (
	// ErrPortalClientNotConfigured indicates the extractor was constructed without a portal client.
	ErrPortalClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrOutputDirectoryNotConfigured indicates the extractor has nowhere to write.
	ErrOutputDirectoryNotConfigured = errors.New(outputNotConfiguredMessageConstant)
)

// PortalClient is the subset of portal operations the extractor needs.
type PortalClient interface {
	SearchUsers(executionContext context.Context) ([]portal.User, error)
	SearchGroups(executionContext context.Context) ([]portal.Group, error)
	SearchItems(executionContext context.Context) ([]portal.Item, error)
	Roles(executionContext context.Context) ([]portal.Role, error)
	UserGroups(executionContext context.Context, username string) ([]portal.Group, error)
	UserRootItems(executionContext context.Context, username string) ([]portal.Item, error)
	UserFolders(executionContext context.Context, username string) ([]portal.Folder, error)
	UserFolderItems(executionContext context.Context, username string, folderID string) ([]portal.Item, error)
	GroupMembers(executionContext context.Context, groupID string) (portal.GroupMembers, error)
	GroupContent(executionContext context.Context, groupID string) ([]portal.Item, error)
	ItemGroups(executionContext context.Context, itemID string) (portal.ItemGroupSharing, error)
	ItemHomepage(itemID string) string
}

// Options configures an extraction.
type Options struct {
	OutputDirectory     string
	IncludeMemberCounts bool
	Location            *time.Location
}

// Result summarizes an extraction.
type Result struct {
	UsersFile     string
	GroupsFile    string
	ItemsFile     string
	UserRows      int
	GroupRows     int
	ItemRows      int
	ExcludedItems int
	SkippedRows   int
}

// Extractor builds inventory record sets from the portal.
type Extractor struct {
	client  PortalClient
	logger  *zap.Logger
	options Options
}

// NewExtractor validates collaborators and constructs an Extractor.
func NewExtractor(client PortalClient, logger *zap.Logger, options Options) (*Extractor, error) {
	if client == nil {
		return nil, ErrPortalClientNotConfigured
	}
	if len(options.OutputDirectory) == 0 {
		return nil, ErrOutputDirectoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Location == nil {
		options.Location = time.Local
	}
	return &Extractor{client: client, logger: logger, options: options}, nil
}

// Extract writes users.csv, groups.csv, and items.csv in that order.
// Files written before a failing search are kept.
func (extractor *Extractor) Extract(executionContext context.Context) (Result, error) {
	extractor.logger.Info(extractionStartedMessageConstant)
	result := Result{
		UsersFile:  filepath.Join(extractor.options.OutputDirectory, UsersFileName),
		GroupsFile: filepath.Join(extractor.options.OutputDirectory, GroupsFileName),
		ItemsFile:  filepath.Join(extractor.options.OutputDirectory, ItemsFileName),
	}

	userRecords, skippedUsers, usersError := extractor.extractUsers(executionContext)
	if usersError != nil {
		return result, usersError
	}
	result.UserRows = len(userRecords)
	result.SkippedRows += skippedUsers
	userRows := make([][]string, 0, len(userRecords))
	for _, record := range userRecords {
		userRows = append(userRows, record.CSVRecord())
	}
	if writeError := extractor.writeTable(result.UsersFile, entityUsersConstant, tabular.NewTable(UserColumns, userRows), skippedUsers); writeError != nil {
		return result, writeError
	}

	groupRecords, skippedGroups, groupsError := extractor.extractGroups(executionContext)
	if groupsError != nil {
		return result, groupsError
	}
	result.GroupRows = len(groupRecords)
	result.SkippedRows += skippedGroups
	groupHeader := GroupColumns
	if extractor.options.IncludeMemberCounts {
		groupHeader = GroupColumnsWithCounts
	}
	groupRows := make([][]string, 0, len(groupRecords))
	for _, record := range groupRecords {
		groupRows = append(groupRows, record.CSVRecord(extractor.options.IncludeMemberCounts))
	}
	if writeError := extractor.writeTable(result.GroupsFile, entityGroupsConstant, tabular.NewTable(groupHeader, groupRows), skippedGroups); writeError != nil {
		return result, writeError
	}

	itemRecords, excludedItems, skippedItems, itemsError := extractor.extractItems(executionContext)
	if itemsError != nil {
		return result, itemsError
	}
	result.ItemRows = len(itemRecords)
	result.ExcludedItems = excludedItems
	result.SkippedRows += skippedItems
	itemRows := make([][]string, 0, len(itemRecords))
	for _, record := range itemRecords {
		itemRows = append(itemRows, record.CSVRecord())
	}
	if writeError := extractor.writeTable(result.ItemsFile, entityItemsConstant, tabular.NewTable(ItemColumns, itemRows), skippedItems); writeError != nil {
		return result, writeError
	}

	return result, nil
}

func (extractor *Extractor) extractUsers(executionContext context.Context) ([]UserRecord, int, error) {
	users, searchError := extractor.client.SearchUsers(executionContext)
	if searchError != nil {
		return nil, 0, fmt.Errorf(searchFailedTemplateConstant, entityUsersConstant, searchError)
	}
	roles, rolesError := extractor.client.Roles(executionContext)
	if rolesError != nil {
		return nil, 0, fmt.Errorf(roleCatalogFailedTemplateConstant, rolesError)
	}
	roleNames := make(map[string]string, len(roles))
	for _, role := range roles {
		roleNames[role.ID] = role.Name
	}

	records := make([]UserRecord, 0, len(users))
	skipped := 0
	for _, user := range users {
		record, recordError := extractor.buildUserRecord(executionContext, user, roleNames)
		if recordError != nil {
			skipped++
			extractor.logger.Warn(rowSkippedMessageConstant, zap.String(logFieldEntityConstant, entityUsersConstant), zap.Error(recordError))
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

func (extractor *Extractor) buildUserRecord(executionContext context.Context, user portal.User, roleNames map[string]string) (UserRecord, error) {
	userGroups, groupsError := extractor.client.UserGroups(executionContext, user.Username)
	if groupsError != nil {
		return UserRecord{}, fmt.Errorf(userGroupsFailedTemplateConstant, user.Username, groupsError)
	}
	groupTitles := make([]string, 0, len(userGroups))
	for _, group := range userGroups {
		groupTitles = append(groupTitles, group.Title)
	}

	rootItems, rootItemsError := extractor.client.UserRootItems(executionContext, user.Username)
	if rootItemsError != nil {
		return UserRecord{}, fmt.Errorf(userRootItemsFailedTemplateConstant, user.Username, rootItemsError)
	}
	itemCount := len(rootItems)

	folders, foldersError := extractor.client.UserFolders(executionContext, user.Username)
	if foldersError != nil {
		return UserRecord{}, fmt.Errorf(userFoldersFailedTemplateConstant, user.Username, foldersError)
	}
	for _, folder := range folders {
		folderItems, folderItemsError := extractor.client.UserFolderItems(executionContext, user.Username, folder.ID)
		if folderItemsError != nil {
			return UserRecord{}, fmt.Errorf(userFolderItemsFailedTemplateConstant, user.Username, folder.Title, folderItemsError)
		}
		itemCount += len(folderItems)
	}

	role := user.Role
	if resolvedRole, found := roleNames[user.RoleID]; found && len(user.RoleID) > 0 {
		role = resolvedRole
	}

	return UserRecord{
		Username:    user.Username,
		Email:       user.Email,
		Role:        role,
		LastLogin:   extractor.formatLastLogin(user.LastLogin),
		Created:     extractor.formatDate(user.Created),
		GroupTitles: groupTitles,
		ItemCount:   itemCount,
	}, nil
}

func (extractor *Extractor) extractGroups(executionContext context.Context) ([]GroupRecord, int, error) {
	groups, searchError := extractor.client.SearchGroups(executionContext)
	if searchError != nil {
		return nil, 0, fmt.Errorf(searchFailedTemplateConstant, entityGroupsConstant, searchError)
	}

	records := make([]GroupRecord, 0, len(groups))
	skipped := 0
	for _, group := range groups {
		record, recordError := extractor.buildGroupRecord(executionContext, group)
		if recordError != nil {
			skipped++
			extractor.logger.Warn(rowSkippedMessageConstant, zap.String(logFieldEntityConstant, entityGroupsConstant), zap.Error(recordError))
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

func (extractor *Extractor) buildGroupRecord(executionContext context.Context, group portal.Group) (GroupRecord, error) {
	members, membersError := extractor.client.GroupMembers(executionContext, group.ID)
	if membersError != nil {
		return GroupRecord{}, fmt.Errorf(groupMembersFailedTemplateConstant, group.Title, membersError)
	}
	content, contentError := extractor.client.GroupContent(executionContext, group.ID)
	if contentError != nil {
		return GroupRecord{}, fmt.Errorf(groupContentFailedTemplateConstant, group.Title, contentError)
	}
	return GroupRecord{
		Title:     group.Title,
		Owner:     members.Owner,
		Managers:  append([]string{}, members.Admins...),
		Members:   append([]string{}, members.Users...),
		ItemCount: len(content),
	}, nil
}

func (extractor *Extractor) extractItems(executionContext context.Context) ([]ItemRecord, int, int, error) {
	items, searchError := extractor.client.SearchItems(executionContext)
	if searchError != nil {
		return nil, 0, 0, fmt.Errorf(searchFailedTemplateConstant, entityItemsConstant, searchError)
	}

	records := make([]ItemRecord, 0, len(items))
	excluded := 0
	skipped := 0
	for _, item := range items {
		if IsExcludedItemType(item.Type) {
			excluded++
			continue
		}
		record, recordError := extractor.buildItemRecord(executionContext, item)
		if recordError != nil {
			skipped++
			extractor.logger.Warn(rowSkippedMessageConstant, zap.String(logFieldEntityConstant, entityItemsConstant), zap.Error(recordError))
			continue
		}
		records = append(records, record)
	}
	return records, excluded, skipped, nil
}

func (extractor *Extractor) buildItemRecord(executionContext context.Context, item portal.Item) (ItemRecord, error) {
	sharing, sharingError := extractor.client.ItemGroups(executionContext, item.ID)
	if sharingError != nil {
		return ItemRecord{}, fmt.Errorf(itemGroupsFailedTemplateConstant, item.ID, sharingError)
	}
	sharedGroupTitles := []string{}
	for _, group := range sharing.All() {
		sharedGroupTitles = append(sharedGroupTitles, group.Title)
	}

	return ItemRecord{
		Title:              item.Title,
		Owner:              item.Owner,
		ID:                 item.ID,
		Type:               item.Type,
		Authoritative:      item.ContentStatus,
		Tags:               append([]string{}, item.Tags...),
		Access:             item.Access,
		SharedWithOrg:      item.Access == portalAccessOrganizationConstant || item.Access == portalAccessPublicConstant,
		SharedWithEveryone: item.Access == portalAccessPublicConstant,
		SharedWithGroups:   sharedGroupTitles,
		Views:              item.NumViews,
		Created:            extractor.formatDate(item.Created),
		Homepage:           extractor.client.ItemHomepage(item.ID),
		Thumbnail:          item.Thumbnail,
		Description:        item.Description,
		SizeMegabytes:      float64(item.Size) / bytesPerMegabyteConstant,
	}, nil
}

func (extractor *Extractor) writeTable(filePath string, entity string, table tabular.Table, skipped int) error {
	if writeError := tabular.WriteFile(filePath, table); writeError != nil {
		return fmt.Errorf(writeFailedTemplateConstant, filePath, writeError)
	}
	extractor.logger.Info(
		fileWrittenMessageConstant,
		zap.String(logFieldEntityConstant, entity),
		zap.String(logFieldFileConstant, filePath),
		zap.Int(logFieldRowsConstant, table.Len()),
		zap.Int(logFieldSkippedConstant, skipped),
	)
	return nil
}

func (extractor *Extractor) formatLastLogin(epochMilliseconds int64) string {
	if epochMilliseconds == neverLoggedInTimestampConstant {
		return neverLoggedInConstant
	}
	return extractor.formatDate(epochMilliseconds)
}

func (extractor *Extractor) formatDate(epochMilliseconds int64) string {
	return portal.MillisecondsToTime(epochMilliseconds).In(extractor.options.Location).Format(DateLayout)
}
