package github

// User is the authenticated GitHub account.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type Owner struct {
	Login string `json:"login"`
}

// Repository as returned by GET /user/repos.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    Owner  `json:"owner"`
	Private  bool   `json:"private"`
	Fork     bool   `json:"fork"`
	Archived bool   `json:"archived"`
	HTMLURL  string `json:"html_url"`
}

type Permissions struct {
	Admin    bool `json:"admin"`
	Maintain bool `json:"maintain"`
	Push     bool `json:"push"`
	Triage   bool `json:"triage"`
	Pull     bool `json:"pull"`
}

// Collaborator is a user with direct access to a repository.
type Collaborator struct {
	ID          int64       `json:"id"`
	Login       string      `json:"login"`
	AvatarURL   string      `json:"avatar_url"`
	HTMLURL     string      `json:"html_url"`
	Permissions Permissions `json:"permissions"`
	RoleName    string      `json:"role_name"`
}

// PermissionLabel returns the highest permission held, using GitHub's role names.
func (c Collaborator) PermissionLabel() string {
	switch {
	case c.Permissions.Admin:
		return "admin"
	case c.Permissions.Maintain:
		return "maintain"
	case c.Permissions.Push:
		return "write"
	case c.Permissions.Triage:
		return "triage"
	default:
		return "read"
	}
}
