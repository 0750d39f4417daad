package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Menu is one node of the navigation tree. ParentID is nil for root menus.
// OrderIndex is kept contiguous within a (parent, active) sibling group by
// the menu controller on insert, delete and move.
type Menu struct {
	ID         bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	Key        string         `bson:"key" json:"key"`
	Name       string         `bson:"name" json:"name"`
	Route      string         `bson:"route" json:"route"`
	ParentID   *bson.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	OrderIndex int            `bson:"orderIndex" json:"orderIndex"`
	IsActive   bool           `bson:"isActive" json:"isActive"`
	IsDeleted  bool           `bson:"isDeleted" json:"-"`
	CreatedAt  time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// MenuNode is a menu plus its resolved children, as returned to clients.
type MenuNode struct {
	Menu     `bson:",inline"`
	Children []*MenuNode `json:"children"`
}
