package domain

import "time"

// User is the identity record resolved by the auth flow. The first successful
// OTP verification for an unseen email implicitly provisions the user.
type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
