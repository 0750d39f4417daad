package dto

type CreateMenuDTO struct {
	Key        string  `json:"key" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Route      string  `json:"route" binding:"required"`
	ParentID   *string `json:"parentId,omitempty"`
	OrderIndex *int    `json:"orderIndex,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

type UpdateMenuDTO struct {
	Name       *string `json:"name,omitempty"`
	Route      *string `json:"route,omitempty"`
	ParentID   *string `json:"parentId,omitempty"`
	OrderIndex *int    `json:"orderIndex,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}
