package domain

type Role string

const (
	RolePassenger Role = "passenger"
	RoleAdmin     Role = "admin"
)

// Caller is the authenticated identity every lifecycle operation acts on behalf of.
type Caller struct {
	PassportNo string `json:"passport_no"`
	Role       Role   `json:"role"`
	Subject    string `json:"sub"`
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Owns is true for the passenger the booking belongs to.
func (c Caller) Owns(b Booking) bool {
	return c.PassportNo != "" && c.PassportNo == b.PassportNo
}

// Identity is stored in cancelled_by / requested_by.
func (c Caller) Identity() string {
	if c.IsAdmin() {
		if c.Subject != "" {
			return "admin:" + c.Subject
		}
		return "admin"
	}
	return c.PassportNo
}
