package model

// User is an application login account. JSON names follow the usuariosweb
// table the web client already consumes.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"usuario"`
	Name         string `json:"nombre"`
	PasswordHash string `json:"-"`
}

// NewUserRequest is the body of a user creation request
type NewUserRequest struct {
	Username string `json:"usuario" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Name     string `json:"nombre" validate:"max=200"`
}
