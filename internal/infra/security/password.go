package security

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes passwords with bcrypt. The zero value uses the library
// default cost; tests lower Cost to keep runs fast.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.effectiveCost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h BcryptHasher) effectiveCost() int {
	switch {
	case h.Cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	case h.Cost >= bcrypt.MinCost:
		return h.Cost
	default:
		return bcrypt.DefaultCost
	}
}
