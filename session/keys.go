package session

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/goAuthz/internal"
)

// KeySet is one rotating secret/refresh pair bound to an application, or to
// no application when AppID is empty.
//
// ExpiryTime and FailureTime are unix milliseconds and already include the
// clock-skew allowance.
type KeySet struct {
	AppID        string `json:"appId,omitempty"`
	TokenLife    int64  `json:"tokenLife"`
	SecretKey    string `json:"secretKey"`
	RefreshKey   string `json:"refreshKey"`
	WeChatOpenID string `json:"weChatOpenId,omitempty"`
	ExpiryTime   int64  `json:"expiryTime"`
	FailureTime  int64  `json:"failureTime"`
}

// NewKeySet creates a key set issued at now. tokenLife is the full session
// window in seconds; the access secret is valid for one twelfth of it.
func NewKeySet(appID string, tokenLife int64, now time.Time, skew time.Duration) (*KeySet, error) {
	if tokenLife <= 0 {
		return nil, ErrInvalidTokenLife
	}
	secret, err := internal.NewSecret()
	if err != nil {
		return nil, err
	}
	refresh, err := internal.NewSecret()
	if err != nil {
		return nil, err
	}

	ks := &KeySet{
		AppID:      appID,
		TokenLife:  tokenLife,
		SecretKey:  secret,
		RefreshKey: refresh,
	}
	ks.ExpiryTime = ks.nextExpiry(now, skew)
	ks.FailureTime = ks.nextFailure(now, skew)
	return ks, nil
}

func (k *KeySet) nextExpiry(now time.Time, skew time.Duration) int64 {
	return now.UnixMilli() + k.TokenLife*1000/12 + skew.Milliseconds()
}

func (k *KeySet) nextFailure(now time.Time, skew time.Duration) int64 {
	return now.UnixMilli() + k.TokenLife*1000 + skew.Milliseconds()
}

// CrossApp reports whether the key set is usable from any application.
func (k *KeySet) CrossApp() bool {
	return k.AppID == ""
}

// Expired reports whether the access secret is past its soft deadline.
func (k *KeySet) Expired(now time.Time) bool {
	return now.UnixMilli() > k.ExpiryTime
}

// Failed reports whether the session is past its hard ceiling.
func (k *KeySet) Failed(now time.Time) bool {
	return now.UnixMilli() > k.FailureTime
}

// MatchSecret compares secret with the access secret in constant time.
func (k *KeySet) MatchSecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(k.SecretKey), []byte(secret)) == 1
}

// MatchRefresh compares secret with the refresh secret in constant time.
func (k *KeySet) MatchRefresh(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(k.RefreshKey), []byte(secret)) == 1
}

// Refresh rotates the key set once its access secret has expired. Before
// expiry it is a no-op and returns false.
//
// A cross-application key set gets new secret and refresh keys and both
// deadlines move forward. An application-bound key set only gets a new
// access secret; its expiry moves forward but never past FailureTime.
func (k *KeySet) Refresh(now time.Time, skew time.Duration) (bool, error) {
	if !k.Expired(now) {
		return false, nil
	}

	secret, err := internal.NewSecret()
	if err != nil {
		return false, err
	}

	if k.CrossApp() {
		refresh, err := internal.NewSecret()
		if err != nil {
			return false, err
		}
		k.SecretKey = secret
		k.RefreshKey = refresh
		k.ExpiryTime = k.nextExpiry(now, skew)
		k.FailureTime = k.nextFailure(now, skew)
		return true, nil
	}

	k.SecretKey = secret
	k.ExpiryTime = min(k.nextExpiry(now, skew), k.FailureTime)
	return true, nil
}
