package hnap

import "context"

// login runs the two-step challenge/response handshake and returns an
// established session. A failure at either step discards all intermediate
// material; callers retry the whole sequence with fresh challenge material,
// never with a stale challenge.
func (c *Client) login(ctx context.Context) (*Session, error) {
	// Step 1: ask for challenge material, signed with the placeholder key.
	boot := &Session{PrivateKey: undefinedPrivateKey}
	params := map[string]string{
		"Action":   "request",
		"Username": c.cred.Username,
	}
	var challenge LoginReply
	if err := c.do(ctx, ActionLogin, params, boot, &challenge); err != nil {
		return nil, err
	}
	if challenge.Challenge == "" || challenge.Cookie == "" {
		return nil, &ProtocolError{Action: ActionLogin, Detail: "challenge material missing from login response"}
	}

	// Step 2: derive the shared secret and answer the challenge. The login
	// password is the challenge re-hashed under the derived key.
	privateKey := HexHMACMD5([]byte(challenge.Challenge), []byte(challenge.PublicKey+c.cred.Password))
	loginPassword := HexHMACMD5([]byte(privateKey), []byte(challenge.Challenge))

	sess := &Session{
		PrivateKey:    privateKey,
		Cookie:        challenge.Cookie,
		EstablishedAt: c.signer.now(),
	}

	params = map[string]string{
		"Action":        "login",
		"Username":      c.cred.Username,
		"LoginPassword": loginPassword,
		"Captcha":       "",
		"PrivateLogin":  "LoginPassword",
	}
	var confirm LoginReply
	if err := c.do(ctx, ActionLogin, params, sess, &confirm); err != nil {
		return nil, err
	}

	switch confirm.Result {
	case resultOK:
		return sess, nil
	case "FAILED":
		return nil, &AuthError{Reason: "username or password rejected"}
	case "LOCKUP":
		return nil, &AuthError{Reason: "maximum login attempts reached"}
	case "REBOOT":
		return nil, &AuthError{Reason: "account locked, modem reboot required"}
	case "OK_CHANGED":
		return nil, &AuthError{Reason: "modem requires a password change"}
	default:
		return nil, &ProtocolError{Action: ActionLogin, Status: confirm.Result}
	}
}
