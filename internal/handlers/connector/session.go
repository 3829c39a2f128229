package connector

import "net/http"

// requestSession reads the storefront cart from the cart_id cookie or query parameter
type requestSession struct {
	cartID int64
	ok     bool
}

func sessionFromRequest(r *http.Request) *requestSession {
	raw := r.URL.Query().Get(cartCookie)
	if cookie, err := r.Cookie(cartCookie); err == nil && cookie.Value != "" {
		raw = cookie.Value
	}
	if raw == "" {
		return &requestSession{}
	}
	id, err := parseID(raw)
	if err != nil {
		return &requestSession{}
	}
	return &requestSession{cartID: id, ok: true}
}

// ActiveCartID implements ports.SessionAccessor
func (s *requestSession) ActiveCartID() (int64, bool) {
	return s.cartID, s.ok
}
