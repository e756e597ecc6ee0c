package model

// ExperimentalCodeA selects the high-reward scoring variant (10 points per
// correct answer instead of 1).
const ExperimentalCodeA = "A"

// User represents a registered exam participant. The ID doubles as the login
// code the participant types in, so it stays a plain string.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ExperimentalCode string `json:"experimental_code"`
}

// PointsPerCorrect returns the score awarded for each correctly answered
// question under this user's experimental condition.
func (u *User) PointsPerCorrect() int {
	if u.ExperimentalCode == ExperimentalCodeA {
		return 10
	}
	return 1
}

// LoginRequest is the payload for participant login.
type LoginRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Code string `json:"code" binding:"required,min=1,max=20"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token   string   `json:"token"`
	User    User     `json:"user"`
	Session *Session `json:"session"`
}
