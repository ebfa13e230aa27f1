package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Member is a joined room member.
type Member struct {
	UserID      string `json:"-"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type joinedMembersResponse struct {
	Joined map[string]Member `json:"joined"`
}

type sendResponse struct {
	EventID string `json:"event_id"`
}

// WhoamiResponse identifies the owner of the access token.
type WhoamiResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// Whoami returns the user id and device id of the access token.
func (c *Client) Whoami(ctx context.Context) (*WhoamiResponse, error) {
	var resp WhoamiResponse
	if err := c.do(ctx, http.MethodGet, apiPrefixR0+"account/whoami", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JoinedMembers returns the joined members of a room keyed by user id.
func (c *Client) JoinedMembers(ctx context.Context, roomID string) ([]Member, error) {
	room, err := pathParam("roomId", roomID)
	if err != nil {
		return nil, err
	}
	var resp joinedMembersResponse
	if err := c.do(ctx, http.MethodGet, apiPrefixR0+"rooms/"+room+"/joined_members", nil, &resp); err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(resp.Joined))
	for id, m := range resp.Joined {
		m.UserID = id
		members = append(members, m)
	}
	return members, nil
}

// SendMessage sends an m.room.message event and returns its event id.
// content is anything that marshals to a message content object.
func (c *Client) SendMessage(ctx context.Context, roomID string, content any) (string, error) {
	room, err := pathParam("roomId", roomID)
	if err != nil {
		return "", err
	}
	txn, err := pathParam("txnId", uuid.NewString())
	if err != nil {
		return "", err
	}
	var resp sendResponse
	path := apiPrefixR0 + "rooms/" + room + "/send/m.room.message/" + txn
	if err := c.do(ctx, http.MethodPut, path, content, &resp); err != nil {
		return "", err
	}
	return resp.EventID, nil
}
