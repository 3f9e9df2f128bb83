package user

import (
	"crypto/subtle"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/eduverse/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
	RoleAccountant = "accountant"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleAccountant}

	NowFunc = time.Now                                            // mockable
	NewID   = func() string { return "user_" + uuid.NewString() } // mockable
)

// DefaultAvatar returns a generated avatar URL for name.
func DefaultAvatar(name string, background ...string) string {
	bg := "random"
	if len(background) > 0 && background[0] != "" {
		bg = background[0]
	}
	return "https://ui-avatars.com/api/?name=" + url.PathEscape(name) + "&background=" + bg
}

// StudentProfile holds the fields only students have.
type StudentProfile struct {
	ClassID     string `json:"classId,omitempty"`
	Grade       string `json:"grade,omitempty"`
	ParentEmail string `json:"parentEmail,omitempty"`
}

// TeacherProfile holds the fields only teachers have.
type TeacherProfile struct {
	Subjects []string `json:"subjects,omitempty"`
	Classes  []string `json:"classes,omitempty"` // class IDs
}

// Contact holds the optional profile details editable by any user.
type Contact struct {
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Education  string `json:"education,omitempty"`
	Experience string `json:"experience,omitempty"`
}

// User is stored flat; the role profiles are only present for their role.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Role         string    `json:"role"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	Status       string    `json:"status"`

	*StudentProfile
	*TeacherProfile
	Contact
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword also accepts the plaintext passwords of accounts written before hashing.
func (u *User) CheckPassword(pwd string) error {
	if !u.HasPlainPassword() {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pwd))
	}
	if u.PasswordHash == "" || subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(pwd)) != 1 {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return nil
}

// HasPlainPassword reports whether the stored password is not a bcrypt hash.
func (u *User) HasPlainPassword() bool {
	_, err := bcrypt.Cost([]byte(u.PasswordHash))
	return err != nil
}

func (u *User) IsActive() bool { return u.Status != StatusInactive }

// ClassID returns the class of a student, or "".
func (u *User) ClassID() string {
	if u.StudentProfile == nil {
		return ""
	}
	return u.StudentProfile.ClassID
}

// TeachesClass reports whether a teacher is assigned classID.
func (u *User) TeachesClass(classID string) bool {
	if u.TeacherProfile == nil {
		return false
	}
	for _, id := range u.TeacherProfile.Classes {
		if id == classID {
			return true
		}
	}
	return false
}

// normalize drops the profiles that do not belong to the user's role.
func (u *User) normalize() {
	if u.Role != RoleStudent {
		u.StudentProfile = nil
	}
	if u.Role != RoleTeacher {
		u.TeacherProfile = nil
	}
}

// Session returns the reduced projection of u representing a logged in user.
func (u User) Session() Session {
	return Session{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Avatar:  u.Avatar,
		ClassID: u.ClassID(),
	}
}

// Session is the currently logged in user.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Avatar  string `json:"avatar"`
	ClassID string `json:"classId,omitempty"`
}

func (s Session) IsZero() bool { return s.ID == "" }

// HasRole reports whether the session role is one of roles.
func (s Session) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name        string   `json:"name" validate:"required,notblank"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required"`
	Role        string   `json:"role" validate:"omitempty,role"`
	Avatar      string   `json:"avatar" validate:"omitempty,url"`
	ClassID     string   `json:"classId"`
	Grade       string   `json:"grade"`
	ParentEmail string   `json:"parentEmail" validate:"omitempty,email"`
	Subjects    []string `json:"subjects" validate:"omitempty,dive,notblank"`
	Classes     []string `json:"classes" validate:"omitempty,dive,notblank"`
	Phone       string   `json:"phone"`
}

func (nu *NewUser) clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.ParentEmail = core.CleanString(nu.ParentEmail, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left untouched.
type UpdateUser struct {
	Name       *string `json:"name" validate:"omitempty,notblank"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password"`
	Avatar     *string `json:"avatar" validate:"omitempty,url"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	Bio        *string `json:"bio"`
	Education  *string `json:"education"`
	Experience *string `json:"experience"`
}

func (uu *UpdateUser) clean() {
	if uu.Name != nil {
		name := core.CleanString(*uu.Name)
		uu.Name = &name
	}
	if uu.Email != nil {
		email := core.CleanString(*uu.Email, true /* lower */)
		uu.Email = &email
	}
}

// IsEmpty reports whether uu changes nothing.
func (uu *UpdateUser) IsEmpty() bool {
	return uu.Name == nil && uu.Email == nil && uu.Password == nil && uu.Avatar == nil &&
		uu.Phone == nil && uu.Address == nil && uu.Bio == nil && uu.Education == nil && uu.Experience == nil
}

// apply merges uu into usr.
func (uu *UpdateUser) apply(usr *User) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&usr.Name, uu.Name)
	set(&usr.Email, uu.Email)
	set(&usr.Avatar, uu.Avatar)
	set(&usr.Phone, uu.Phone)
	set(&usr.Address, uu.Address)
	set(&usr.Bio, uu.Bio)
	set(&usr.Education, uu.Education)
	set(&usr.Experience, uu.Experience)
	if uu.Password != nil {
		return usr.SetPassword(*uu.Password)
	}
	return nil
}

type QueryFilter struct {
	Search  string
	Roles   []string
	ClassID string
	Status  string
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && len(qf.Roles) == 0 && qf.ClassID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Match reports whether usr satisfies every field of qf.
// Search is a case-insensitive match on one of User.Name or User.Email.
func (qf *QueryFilter) Match(usr User) bool {
	if qf.Search != "" && !core.ContainsFold(qf.Search, usr.Name, usr.Email) {
		return false
	}
	if len(qf.Roles) > 0 {
		s := usr.Session()
		if !s.HasRole(qf.Roles...) {
			return false
		}
	}
	if qf.ClassID != "" && usr.ClassID() != qf.ClassID {
		return false
	}
	if qf.Status != "" && usr.Status != qf.Status {
		return false
	}
	return true
}
