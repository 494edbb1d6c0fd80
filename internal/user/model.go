package user

import (
	"strings"
	"time"
)

type User struct {
	ID             int        `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Name           *string    `db:"name" json:"name"`
	PasswordHash   string     `db:"password_hash" json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	YearLevel      *string    `db:"year_level" json:"year_level"`
	HSCSubjects    *string    `db:"hsc_subjects" json:"hsc_subjects"`
	Address        *string    `db:"address" json:"address"`
	PhoneNumber    *string    `db:"phone_number" json:"phone_number"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth"`
	Bio            *string    `db:"bio" json:"bio"`
	ProfilePicture *string    `db:"profile_picture" json:"profile_picture"`
}

// Profile holds the user-editable personal details.
type Profile struct {
	Name        *string
	Address     *string
	PhoneNumber *string
	DateOfBirth *time.Time
	Bio         *string
}

// SubjectList splits the stored comma-joined subject names.
func (u *User) SubjectList() []string {
	if u.HSCSubjects == nil || *u.HSCSubjects == "" {
		return []string{}
	}
	parts := strings.Split(*u.HSCSubjects, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasSelectedSubjects is false until a non-empty selection has been saved.
func (u *User) HasSelectedSubjects() bool {
	return len(u.SubjectList()) > 0
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// StringValue dereferences optional text columns for templates and forms.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NullableString maps blank input to NULL.
func NullableString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
