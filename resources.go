package rojifi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/api"
)

// Resource paths of the admin API.
const (
	PathContacts       = "/contacts"
	PathNewsletters    = "/newsletters"
	PathProviders      = "/providers"
	PathAccessRequests = "/access-requests"
	PathSenders        = "/senders"
	PathTeams          = "/teams"
	PathStaff          = "/staff"
)

// ResourcePath maps a short resource name, as typed on the command line, to
// its API path. It accepts names with or without a leading slash.
func ResourcePath(name string) (string, bool) {
	switch strings.Trim(strings.ToLower(name), "/") {
	case "contacts":
		return PathContacts, true
	case "newsletters":
		return PathNewsletters, true
	case "providers":
		return PathProviders, true
	case "access-requests", "requests":
		return PathAccessRequests, true
	case "senders":
		return PathSenders, true
	case "teams":
		return PathTeams, true
	case "staff":
		return PathStaff, true
	}
	return "", false
}

// TeamMembersPath is the list path of a team's members.
func TeamMembersPath(teamID string) string {
	return api.Path(PathTeams, teamID, "members")
}

// Contact is an entry of the console's contact list.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

// Newsletter is a newsletter subscription.
type Newsletter struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Provider is a payment provider with its fee schedule.
type Provider struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Currency   string          `json:"currency"`
	Active     bool            `json:"active"`
	FeePercent decimal.Decimal `json:"feePercent"`
	FlatFee    decimal.Decimal `json:"flatFee"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// AccessRequest is a pending request for console access.
type AccessRequest struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	BusinessName string    `json:"businessName"`
	Status       string    `json:"status"`
	Agreement    bool      `json:"agreement"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sender is a registered business sender.
type Sender struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	Country      string    `json:"country"`
	KYCStatus    string    `json:"kycStatus"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Team is a group of console users.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerEmail  string    `json:"ownerEmail"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TeamMember is a user's membership of a team.
type TeamMember struct {
	TeamID   string    `json:"teamId"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Staff is an internal console operator.
type Staff struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Active      bool     `json:"active"`
	Permissions []string `json:"permissions,omitempty"`
}

// ApproveAccessRequest approves the access request id. Tracker key: id.
func (c *Client) ApproveAccessRequest(ctx context.Context, id string) error {
	return c.Mutate(ctx, http.MethodPost, api.Path(PathAccessRequests, id, "approve"), nil)
}

// RejectAccessRequest rejects the access request id. Tracker key: id.
func (c *Client) RejectAccessRequest(ctx context.Context, id, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	return c.Mutate(ctx, http.MethodPost, api.Path(PathAccessRequests, id, "reject"), body)
}

// ArchiveContact archives the contact id. Tracker key: id.
func (c *Client) ArchiveContact(ctx context.Context, id string) error {
	return c.Mutate(ctx, http.MethodPatch, api.Path(PathContacts, id, "archive"), nil)
}

// SetProviderActive enables or disables the provider id. Tracker key: id.
func (c *Client) SetProviderActive(ctx context.Context, id string, active bool) error {
	return c.Mutate(ctx, http.MethodPatch, api.Path(PathProviders, id, "status"), map[string]bool{"active": active})
}

// SubscribeNewsletter subscribes email. Tracker key: email.
func (c *Client) SubscribeNewsletter(ctx context.Context, email string) error {
	return c.Mutate(ctx, http.MethodPost, api.Path(PathNewsletters, "subscribe"), map[string]string{"email": email})
}

// UnsubscribeNewsletter unsubscribes email. Tracker key: email.
func (c *Client) UnsubscribeNewsletter(ctx context.Context, email string) error {
	return c.Mutate(ctx, http.MethodPost, api.Path(PathNewsletters, "unsubscribe"), map[string]string{"email": email})
}

// RemoveTeamMember removes email from team teamID.
// Tracker key: TeamMemberKey(teamID, email).
func (c *Client) RemoveTeamMember(ctx context.Context, teamID, email string) error {
	return c.Mutate(ctx, http.MethodDelete, api.Path(PathTeams, teamID, "members", email), nil)
}

// TeamMemberKey is the tracker key of a team membership.
func TeamMemberKey(teamID, email string) string {
	return Key(teamID, email)
}
