package inventory

import (
	"strconv"
	"strings"
)

// Column names of users.csv.
const (
	UserColumnUsername  = "USERNAME"
	UserColumnEmail     = "EMAIL"
	UserColumnRole      = "ROLE"
	UserColumnLastLogin = "LAST_LOGIN"
	UserColumnCreated   = "CREATED"
	UserColumnGroups    = "GROUPS"
	UserColumnItems     = "ITEMS"
)

// Column names of groups.csv.
const (
	GroupColumnTitle        = "TITLE"
	GroupColumnOwner        = "OWNER"
	GroupColumnManagers     = "MANAGERS"
	GroupColumnUsers        = "USERS"
	GroupColumnItems        = "ITEMS"
	GroupColumnManagerCount = "MANAGER_COUNT"
	GroupColumnUserCount    = "USER_COUNT"
)

// Column names of items.csv.
const (
	ItemColumnTitle              = "TITLE"
	ItemColumnOwner              = "OWNER"
	ItemColumnID                 = "ID"
	ItemColumnType               = "TYPE"
	ItemColumnAuthoritative      = "AUTHORITATIVE"
	ItemColumnTags               = "TAGS"
	ItemColumnAccess             = "ACCESS"
	ItemColumnSharedWithOrg      = "SHARED_WITH_ORG"
	ItemColumnSharedWithEveryone = "SHARED_WITH_EVERYONE"
	ItemColumnSharedWithGroups   = "SHARED_WITH_GROUPS"
	ItemColumnViews              = "VIEWS"
	ItemColumnCreated            = "CREATED"
	ItemColumnHomepage           = "HOMEPAGE"
	ItemColumnThumbnail          = "THUMBNAIL"
	ItemColumnDescription        = "DESCRIPTION"
	ItemColumnSize               = "SIZE"
)

// DateLayout is the MM/DD/YYYY layout of CREATED and LAST_LOGIN values.
const DateLayout = "01/02/2006"

const (
	listSeparatorConstant    = ", "
	neverLoggedInConstant    = "-1"
	bytesPerMegabyteConstant = 1000 * 1000
	quoteConstant            = "'"
)

// UserColumns lists the users.csv header in order.
var UserColumns = []string{UserColumnUsername, UserColumnEmail, UserColumnRole, UserColumnLastLogin, UserColumnCreated, UserColumnGroups, UserColumnItems}

// GroupColumns lists the groups.csv header in order.
var GroupColumns = []string{GroupColumnTitle, GroupColumnOwner, GroupColumnManagers, GroupColumnUsers, GroupColumnItems}

// GroupColumnsWithCounts lists the groups.csv header when member counts are enabled.
var GroupColumnsWithCounts = append(append([]string{}, GroupColumns...), GroupColumnManagerCount, GroupColumnUserCount)

// ItemColumns lists the items.csv header in order.
var ItemColumns = []string{
	ItemColumnTitle, ItemColumnOwner, ItemColumnID, ItemColumnType, ItemColumnAuthoritative, ItemColumnTags,
	ItemColumnAccess, ItemColumnSharedWithOrg, ItemColumnSharedWithEveryone, ItemColumnSharedWithGroups,
	ItemColumnViews, ItemColumnCreated, ItemColumnHomepage, ItemColumnThumbnail, ItemColumnDescription, ItemColumnSize,
}

// UserRecord is one row of users.csv.
type UserRecord struct {
	Username    string
	Email       string
	Role        string
	LastLogin   string
	Created     string
	GroupTitles []string
	ItemCount   int
}

// CSVRecord returns the row formatted for CSV encoding.
func (record UserRecord) CSVRecord() []string {
	return []string{
		record.Username,
		record.Email,
		record.Role,
		record.LastLogin,
		record.Created,
		quotedList(record.GroupTitles),
		strconv.Itoa(record.ItemCount),
	}
}

// GroupRecord is one row of groups.csv.
type GroupRecord struct {
	Title     string
	Owner     string
	Managers  []string
	Members   []string
	ItemCount int
}

// CSVRecord returns the row formatted for CSV encoding.
func (record GroupRecord) CSVRecord(includeCounts bool) []string {
	row := []string{
		record.Title,
		record.Owner,
		strings.Join(record.Managers, listSeparatorConstant),
		strings.Join(record.Members, listSeparatorConstant),
		strconv.Itoa(record.ItemCount),
	}
	if includeCounts {
		row = append(row, strconv.Itoa(len(record.Managers)), strconv.Itoa(len(record.Members)))
	}
	return row
}

// ItemRecord is one row of items.csv.
type ItemRecord struct {
	Title              string
	Owner              string
	ID                 string
	Type               string
	Authoritative      string
	Tags               []string
	Access             string
	SharedWithOrg      bool
	SharedWithEveryone bool
	SharedWithGroups   []string
	Views              int64
	Created            string
	Homepage           string
	Thumbnail          string
	Description        string
	SizeMegabytes      float64
}

// CSVRecord returns the row formatted for CSV encoding.
func (record ItemRecord) CSVRecord() []string {
	return []string{
		record.Title,
		record.Owner,
		record.ID,
		record.Type,
		record.Authoritative,
		quotedList(record.Tags),
		record.Access,
		strconv.FormatBool(record.SharedWithOrg),
		strconv.FormatBool(record.SharedWithEveryone),
		quotedList(record.SharedWithGroups),
		strconv.FormatInt(record.Views, 10),
		record.Created,
		record.Homepage,
		record.Thumbnail,
		record.Description,
		strconv.FormatFloat(record.SizeMegabytes, 'f', -1, 64),
	}
}

func quotedList(values []string) string {
	quotedValues := make([]string, 0, len(values))
	for _, value := range values {
		quotedValues = append(quotedValues, quoteConstant+value+quoteConstant)
	}
	return strings.Join(quotedValues, listSeparatorConstant)
}

// ParseQuotedList splits a list rendered by the CSV records back into its values.
func ParseQuotedList(rendered string) []string {
	trimmed := strings.TrimSpace(rendered)
	if len(trimmed) == 0 {
		return nil
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, quoteConstant), quoteConstant)
	return strings.Split(trimmed, quoteConstant+listSeparatorConstant+quoteConstant)
}
