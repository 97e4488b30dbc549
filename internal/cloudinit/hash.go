package cloudinit

import (
	"github.com/GehirnInc/crypt/sha512_crypt"
)

// passwordSalt is fixed so regenerating configuration produces the
// same hash and does not churn files that have not really changed.
const passwordSalt = "$6$s4ltsltsALLT"

// HashPassword derives the sha512-crypt hash cloud-init expects in a
// user's passwd field.
func HashPassword(password string) (string, error) {
	return sha512_crypt.New().Generate([]byte(password), []byte(passwordSalt))
}
