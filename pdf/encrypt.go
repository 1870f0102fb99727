package pdf

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Permission is a document capability that a protection policy can deny.
type Permission string

const (
	PermissionPrint   Permission = "PRINT"
	PermissionModify  Permission = "MODIFY"
	PermissionExtract Permission = "EXTRACT"
)

// Permissions lists every known permission in display order.
var Permissions = []Permission{PermissionModify, PermissionPrint, PermissionExtract}

// ParsePermission accepts a permission name in any case.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PermissionPrint, PermissionModify, PermissionExtract:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q, you can only use MODIFY, PRINT and EXTRACT", ErrInvalidPermission, s)
}

// PermissionSet holds denied permissions. A present permission is restricted.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := PermissionSet{}
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether p is denied.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the denied permissions in a stable order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidKeyLength reports whether n is a supported encryption key length.
func ValidKeyLength(n int) error {
	switch n {
	case 40, 128, 256:
		return nil
	}
	return fmt.Errorf("%w: %d, you can only use 40, 128 and 256", ErrInvalidKeyLength, n)
}

// ProtectionPolicy describes the security written by Protect.
type ProtectionPolicy struct {
	OwnerPassword string
	UserPassword  string
	KeyLength     int
	Denied        PermissionSet
}

// NewPasswordPolicy protects a document with password as both owner and user password.
func NewPasswordPolicy(password string, keyLength int) ProtectionPolicy {
	return ProtectionPolicy{
		OwnerPassword: password,
		UserPassword:  password,
		KeyLength:     keyLength,
		Denied:        PermissionSet{},
	}
}

// NewRestrictionPolicy leaves the document openable without a password and denies the given
// permissions. The owner password is random.
func NewRestrictionPolicy(denied PermissionSet) (ProtectionPolicy, error) {
	owner, err := randomPassword()
	if err != nil {
		return ProtectionPolicy{}, err
	}
	return ProtectionPolicy{
		OwnerPassword: owner,
		KeyLength:     DefaultKeyLength,
		Denied:        denied,
	}, nil
}

func (p ProtectionPolicy) CanPrint() bool          { return !p.Denied.Has(PermissionPrint) }
func (p ProtectionPolicy) CanModify() bool         { return !p.Denied.Has(PermissionModify) }
func (p ProtectionPolicy) CanExtractContent() bool { return !p.Denied.Has(PermissionExtract) }

// PermissionBits returns the /P value for the policy.
func (p ProtectionPolicy) PermissionBits() int {
	bits := permAll
	if !p.CanPrint() {
		bits &^= permPrint | permPrintHighQ
	}
	if !p.CanModify() {
		bits &^= permModify
	}
	if !p.CanExtractContent() {
		bits &^= permExtract
	}
	return bits
}

func (p ProtectionPolicy) configuration() (*model.Configuration, error) {
	if err := ValidKeyLength(p.KeyLength); err != nil {
		return nil, err
	}

	var conf *model.Configuration
	if p.KeyLength == 40 {
		conf = model.NewRC4Configuration(p.UserPassword, p.OwnerPassword, p.KeyLength)
	} else {
		conf = model.NewAESConfiguration(p.UserPassword, p.OwnerPassword, p.KeyLength)
	}
	conf.ValidationMode = model.ValidationRelaxed
	conf.Permissions = model.PermissionFlags(p.PermissionBits())
	return conf, nil
}

// Protect writes the document to outFile encrypted according to policy.
func (d *Document) Protect(policy ProtectionPolicy, outFile string) error {
	conf, err := policy.configuration()
	if err != nil {
		return err
	}

	rs, err := d.reader()
	if err != nil {
		return err
	}
	return writeOutput(outFile, func(w io.Writer) error {
		if err := api.Encrypt(rs, w, conf); err != nil {
			return classifyError("encrypt", err)
		}
		return nil
	})
}

func randomPassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: failed to generate owner password: %v", ErrLibraryIO, err)
	}
	return hex.EncodeToString(b), nil
}
