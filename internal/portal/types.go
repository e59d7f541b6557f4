package portal

import "time"

// User describes a portal account returned by the user search endpoint.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	RoleID    string `json:"roleId"`
	LastLogin int64  `json:"lastLogin"`
	Created   int64  `json:"created"`
}

// Role describes an entry of the portal role catalog.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group describes a portal group.
type Group struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Owner string `json:"owner"`
}

// GroupMembers lists the owner, administrators, and members of a group.
type GroupMembers struct {
	Owner  string   `json:"owner"`
	Admins []string `json:"admins"`
	Users  []string `json:"users"`
}

// Folder describes a personal content folder.
type Folder struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Item describes a shareable content item.
type Item struct {
	ID            string   `json:"id"`
	Owner         string   `json:"owner"`
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	Tags          []string `json:"tags"`
	Description   string   `json:"description"`
	NumViews      int64    `json:"numViews"`
	Created       int64    `json:"created"`
	Access        string   `json:"access"`
	Size          int64    `json:"size"`
	Thumbnail     string   `json:"thumbnail"`
	ContentStatus string   `json:"contentStatus"`
	LicenseInfo   string   `json:"licenseInfo"`
}

// ItemGroupSharing lists the groups an item is shared with, by the caller's relationship to the group.
type ItemGroupSharing struct {
	Admin  []Group `json:"admin"`
	Member []Group `json:"member"`
	Other  []Group `json:"other"`
}

// All returns every group the item is shared with.
func (sharing ItemGroupSharing) All() []Group {
	groups := make([]Group, 0, len(sharing.Admin)+len(sharing.Member)+len(sharing.Other))
	groups = append(groups, sharing.Admin...)
	groups = append(groups, sharing.Member...)
	groups = append(groups, sharing.Other...)
	return groups
}

// MillisecondsToTime converts a portal epoch-millisecond timestamp into a time value.
func MillisecondsToTime(epochMilliseconds int64) time.Time {
	return time.UnixMilli(epochMilliseconds)
}
