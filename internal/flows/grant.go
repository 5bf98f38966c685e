package flows

import "github.com/MrEthical07/goSession/internal/state"

// Grant is a token pair plus optional profile returned by an upstream
// auth operation.
type Grant struct {
	AccessToken  string
	RefreshToken string
	User         *state.User
}
