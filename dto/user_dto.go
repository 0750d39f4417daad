package dto

type CreateUserDTO struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" binding:"required,email"`
	RoleID      string `json:"roleId" binding:"required"`
	Designation string `json:"designation"`
}

type UpdateUserDTO struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	RoleID      *string `json:"roleId,omitempty"`
	Designation *string `json:"designation,omitempty"`
}
