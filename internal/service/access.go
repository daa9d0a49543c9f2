package service

import (
	"strings"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	mapset "github.com/deckarep/golang-set/v2"
)

// ReasonNotAllowed is sent to users missing from the editor allow list.
const ReasonNotAllowed = "not_allowed"

// NewAccessService creates an access gate. An empty allow list lets every
// authenticated user in.
func NewAccessService(allowList []string) *AccessService {
	allow := mapset.NewSet[string]()
	for _, user := range allowList {
		if user = strings.TrimSpace(user); user != "" {
			allow.Add(user)
		}
	}
	return &AccessService{allow: allow}
}

// AccessService decides who may use the editor.
type AccessService struct {
	allow mapset.Set[string]
}

func (a *AccessService) EditorAccess(owner string) *v1.AccessResponse {
	if owner == "" {
		return &v1.AccessResponse{Allowed: false, Reason: ReasonNotAllowed}
	}
	if a.allow.Cardinality() == 0 || a.allow.Contains(owner) {
		return &v1.AccessResponse{Allowed: true}
	}
	return &v1.AccessResponse{Allowed: false, Reason: ReasonNotAllowed}
}
