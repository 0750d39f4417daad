package dto

type MfaTokenDTO struct {
	Token string `json:"token" binding:"required,len=6"`
}
