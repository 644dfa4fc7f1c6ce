package model

type UserRole string

const (
	Cadet      UserRole = "cadet"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Cadet, Instructor, Admin:
		return true
	}
	return false
}
