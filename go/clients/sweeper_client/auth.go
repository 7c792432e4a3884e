package sweeper_client

import (
	"context"
	"fmt"
	"net/http"
)

type loginRequest struct {
	InitData string `json:"initData"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	Message     string `json:"message"`
}

// Login exchanges an identity token for a bearer credential.
func (c *SweeperClient) Login(ctx context.Context, identity string) (*Session, error) {
	api := c.Clone()
	api.SetHeader(InitDataHeader, identity)

	resp, err := api.PostJSON(ctx, LoginEndpoint, loginRequest{InitData: identity})
	if err != nil {
		return nil, &TransportError{Op: "login", Err: err}
	}

	var body loginResponse
	decodeErr := resp.DecodeJSON(&body)

	if resp.StatusCode != http.StatusCreated {
		msg := body.Message
		if decodeErr != nil || msg == "" {
			msg = defaultErrorMessage
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: decodeErr.Error()}
	}
	if body.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "missing access token"}
	}

	api.SetHeader(AuthorizationHeader, fmt.Sprintf("Bearer %s", body.AccessToken))
	return &Session{api: api}, nil
}
