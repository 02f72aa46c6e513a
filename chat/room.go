// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/firesidehq/fireside/stream"
)

// MaxMessageLength is the longest single-line message the service
// accepts. Longer single-line messages must be split or truncated;
// messages containing a newline are exempt from the limit.
const MaxMessageLength = 500

// Room is a joined chat room. Its push socket is read by a background
// goroutine that decodes each frame and dispatches the resulting
// events to registered listeners.
type Room struct {
	id       int
	fkey     string
	canPost  bool
	client   *Client
	logger   *slog.Logger
	decoder  *stream.Decoder
	registry *stream.Registry

	socket    Socket
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}

	errMu   sync.Mutex
	readErr error
}

// ID returns the room id.
func (r *Room) ID() int { return r.id }

// CanPost reports whether the account had posting privileges in this
// room at join time.
func (r *Room) CanPost() bool { return r.canPost }

// Registry exposes the room's event registry, for typed registration
// via stream.On.
func (r *Room) Registry() *stream.Registry { return r.registry }

// OnEvent registers a listener for one event kind. The listener runs
// on the room's read goroutine; slow listeners delay later events of
// the same kind.
func (r *Room) OnEvent(kind stream.Kind, fn stream.Listener) stream.Handle {
	return r.registry.Add(kind, fn)
}

// RemoveListener unregisters a previously registered listener. Removing
// a listener twice is harmless.
func (r *Room) RemoveListener(handle stream.Handle) {
	r.registry.Remove(handle)
}

// Done returns a channel that is closed when the room's read loop has
// exited, whether by Close or by a socket failure.
func (r *Room) Done() <-chan struct{} { return r.done }

// Err returns the error that terminated the read loop, or nil if the
// loop is still running or was shut down by Close.
func (r *Room) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.readErr
}

// socketURL negotiates the push socket URL for the room. The service
// requires the timestamp of the newest message as a query parameter so
// it knows where the push stream should start.
func (r *Room) socketURL(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("roomid", strconv.Itoa(r.id))
	form.Set("fkey", r.fkey)
	var auth struct {
		URL string `json:"url"`
	}
	status, err := r.client.postJSON(ctx, "/ws-auth", form, &auth)
	if err != nil {
		return "", fmt.Errorf("chat: socket auth for room %d: %w", r.id, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("chat: socket auth for room %d: %w", r.id, &ServerError{Status: status})
	}
	if auth.URL == "" {
		return "", fmt.Errorf("chat: socket auth for room %d returned no URL", r.id)
	}

	var latest int64
	messages, err := r.Messages(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(messages) > 0 {
		latest = messages[len(messages)-1].Time.Unix()
	}
	return auth.URL + "?l=" + strconv.FormatInt(latest, 10), nil
}

// readLoop reads push frames until the socket fails or is closed,
// decoding each frame and dispatching its events.
func (r *Room) readLoop() {
	defer close(r.done)
	for {
		_, payload, err := r.socket.ReadMessage()
		if err != nil {
			if !r.closing.Load() {
				r.errMu.Lock()
				r.readErr = err
				r.errMu.Unlock()
				r.logger.Error("push socket read failed", "error", err)
			}
			return
		}
		if r.client.observer != nil {
			r.client.observer(r.id, payload)
		}
		events, err := r.decoder.Decode(payload)
		if err != nil {
			// Decode already logged the frame; skip it and keep the
			// connection alive.
			continue
		}
		r.registry.Dispatch(events)
	}
}

// SendMessage posts a message and returns its assigned id. Single-line
// messages longer than MaxMessageLength are rejected; use
// SendMessageSplit to control how long messages are handled.
func (r *Room) SendMessage(ctx context.Context, text string) (int64, error) {
	if !strings.Contains(text, "\n") && len(text) > MaxMessageLength {
		return 0, fmt.Errorf("chat: message exceeds %d characters", MaxMessageLength)
	}
	ids, err := r.SendMessageSplit(ctx, text, SplitNone)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// SendMessageSplit posts a message, applying the given split strategy
// if the text is a single line longer than MaxMessageLength. Messages
// containing a newline are posted whole regardless of length. It
// returns the id of every message posted, in order.
//
// Posting in a room without posting privileges, or receiving a 404
// (privileges revoked mid-session), yields a *PermissionError.
func (r *Room) SendMessageSplit(ctx context.Context, text string, strategy SplitStrategy) ([]int64, error) {
	if !r.canPost {
		return nil, &PermissionError{RoomID: r.id}
	}

	var parts []string
	exempt := strings.Contains(text, "\n") && strategy != SplitNewline
	if len(text) <= MaxMessageLength || exempt {
		parts = []string{text}
	} else {
		parts = strategy.split(text, MaxMessageLength)
	}

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		form := url.Values{}
		form.Set("text", part)
		form.Set("fkey", r.fkey)
		var posted struct {
			ID int64 `json:"id"`
		}
		status, err := r.client.postJSON(ctx, "/chats/"+strconv.Itoa(r.id)+"/messages/new", form, &posted)
		if err != nil {
			return ids, err
		}
		if status == http.StatusNotFound {
			return ids, &PermissionError{RoomID: r.id}
		}
		if status != http.StatusOK {
			return ids, fmt.Errorf("chat: posting to room %d: %w", r.id, &ServerError{Status: status})
		}
		ids = append(ids, posted.ID)
	}
	return ids, nil
}

// EditMessage replaces the content of a previously posted message. The
// service reports failures in the response body; recognized responses
// map to ErrMessageNotFound, ErrMessageDeleted, ErrMessageTooOld and
// ErrNotYourMessage.
func (r *Room) EditMessage(ctx context.Context, messageID int64, text string) error {
	form := url.Values{}
	form.Set("text", text)
	form.Set("fkey", r.fkey)
	status, body, err := r.client.postForm(ctx, "/messages/"+strconv.FormatInt(messageID, 10), form)
	if err != nil {
		return fmt.Errorf("chat: editing message %d: %w", messageID, err)
	}
	if status == http.StatusFound {
		return ErrMessageNotFound
	}
	switch quoted(body) {
	case `"ok"`:
		return nil
	case `"This message has already been deleted and cannot be edited"`:
		return ErrMessageDeleted
	case `"It is too late to edit this message."`:
		return ErrMessageTooOld
	case `"You can only edit your own messages"`:
		return ErrNotYourMessage
	default:
		// The service grows new response strings from time to time;
		// treat anything unrecognized as success rather than failing
		// the edit.
		r.logger.Warn("unrecognized edit response", "message_id", messageID, "body", string(body))
		return nil
	}
}

// DeleteMessage deletes a previously posted message. Deleting a
// message that is already deleted is not an error. Recognized failure
// responses map to ErrMessageNotFound, ErrMessageTooOld and
// ErrNotYourMessage.
func (r *Room) DeleteMessage(ctx context.Context, messageID int64) error {
	form := url.Values{}
	form.Set("fkey", r.fkey)
	status, body, err := r.client.postForm(ctx, "/messages/"+strconv.FormatInt(messageID, 10)+"/delete", form)
	if err != nil {
		return fmt.Errorf("chat: deleting message %d: %w", messageID, err)
	}
	if status == http.StatusFound {
		return ErrMessageNotFound
	}
	switch quoted(body) {
	case `"ok"`, `"This message has already been deleted."`:
		return nil
	case `"It is too late to delete this message"`:
		return ErrMessageTooOld
	case `"You can only delete your own messages"`:
		return ErrNotYourMessage
	default:
		r.logger.Warn("unrecognized delete response", "message_id", messageID, "body", string(body))
		return nil
	}
}

// quoted normalizes an edit/delete response body for comparison: the
// service sends a bare JSON string.
func quoted(body []byte) string {
	return strings.TrimSpace(string(body))
}

// Messages fetches the room's most recent messages, oldest first.
func (r *Room) Messages(ctx context.Context, count int) ([]stream.Message, error) {
	form := url.Values{}
	form.Set("mode", "messages")
	form.Set("msgCount", strconv.Itoa(count))
	form.Set("fkey", r.fkey)
	var page struct {
		Events []json.RawMessage `json:"events"`
	}
	status, err := r.client.postJSON(ctx, "/chats/"+strconv.Itoa(r.id)+"/events", form, &page)
	if err != nil {
		return nil, fmt.Errorf("chat: fetching messages for room %d: %w", r.id, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chat: fetching messages for room %d: %w", r.id, &ServerError{Status: status})
	}
	messages := make([]stream.Message, 0, len(page.Events))
	for _, raw := range page.Events {
		message, err := stream.ParseMessage(raw)
		if err != nil {
			r.logger.Warn("skipping unreadable history record", "error", err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// UserInfo describes a user's standing within a specific room.
type UserInfo struct {
	UserID         int
	RoomID         int
	Username       string
	ProfilePicture string
	Reputation     int
	Moderator      bool
	Owner          bool
	LastPost       time.Time
	LastSeen       time.Time
}

// gravatarURL is the picture endpoint used when the service reports a
// picture by hash rather than by URL.
const gravatarURL = "https://www.gravatar.com/avatar/"

// UserInfo fetches per-room information about the given users. Users
// the service does not know are absent from the result.
func (r *Room) UserInfo(ctx context.Context, userIDs []int) ([]UserInfo, error) {
	joined := make([]string, len(userIDs))
	for i, id := range userIDs {
		joined[i] = strconv.Itoa(id)
	}
	form := url.Values{}
	form.Set("ids", strings.Join(joined, ","))
	form.Set("roomId", strconv.Itoa(r.id))
	var payload struct {
		Users []struct {
			ID         int    `json:"id"`
			Name       string `json:"name"`
			EmailHash  string `json:"email_hash"`
			Reputation int    `json:"reputation"`
			Moderator  bool   `json:"is_moderator"`
			Owner      bool   `json:"is_owner"`
			LastPost   int64  `json:"last_post"`
			LastSeen   int64  `json:"last_seen"`
		} `json:"users"`
	}
	status, err := r.client.postJSON(ctx, "/user/info", form, &payload)
	if err != nil {
		return nil, fmt.Errorf("chat: fetching user info: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chat: fetching user info: %w", &ServerError{Status: status})
	}
	users := make([]UserInfo, 0, len(payload.Users))
	for _, u := range payload.Users {
		// A hash prefixed with "!" is a literal picture URL; anything
		// else addresses the gravatar service.
		picture := gravatarURL + u.EmailHash
		if strings.HasPrefix(u.EmailHash, "!") {
			picture = strings.TrimPrefix(u.EmailHash, "!")
		}
		info := UserInfo{
			UserID:         u.ID,
			RoomID:         r.id,
			Username:       u.Name,
			ProfilePicture: picture,
			Reputation:     u.Reputation,
			Moderator:      u.Moderator,
			Owner:          u.Owner,
		}
		if u.LastPost > 0 {
			info.LastPost = time.Unix(u.LastPost, 0)
		}
		if u.LastSeen > 0 {
			info.LastSeen = time.Unix(u.LastSeen, 0)
		}
		users = append(users, info)
	}
	return users, nil
}

// PingableUser is a user who can be mentioned in a room.
type PingableUser struct {
	RoomID   int
	UserID   int64
	Username string
	LastPost time.Time
}

// PingableUsers fetches the users who can currently be mentioned in
// the room. The service encodes each user as a positional array; rows
// that are not arrays or are too short are skipped.
func (r *Room) PingableUsers(ctx context.Context) ([]PingableUser, error) {
	status, body, err := r.client.get(ctx, "/rooms/pingable/"+strconv.Itoa(r.id))
	if err != nil {
		return nil, fmt.Errorf("chat: fetching pingable users for room %d: %w", r.id, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chat: fetching pingable users for room %d: %w", r.id, &ServerError{Status: status})
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("chat: decoding pingable users for room %d: %w", r.id, err)
	}
	users := make([]PingableUser, 0, len(rows))
	for _, raw := range rows {
		var row []json.RawMessage
		if err := json.Unmarshal(raw, &row); err != nil || len(row) < 4 {
			continue
		}
		var userID int64
		var username string
		var lastPost int64
		if err := json.Unmarshal(row[0], &userID); err != nil {
			continue
		}
		if err := json.Unmarshal(row[1], &username); err != nil {
			continue
		}
		if err := json.Unmarshal(row[3], &lastPost); err != nil {
			continue
		}
		users = append(users, PingableUser{
			RoomID:   r.id,
			UserID:   userID,
			Username: username,
			LastPost: time.Unix(lastPost, 0),
		})
	}
	return users, nil
}

// RoomInfo is a room's public metadata.
type RoomInfo struct {
	ID          int
	Name        string
	Description string
	Tags        []string
}

// tagPattern extracts tag names from the anchor markup the service
// embeds in the room thumbs response.
var tagPattern = regexp.MustCompile(`<a[^>]*>(.*?)</a>`)

// RoomInfo fetches the room's name, description, and tags.
func (r *Room) RoomInfo(ctx context.Context) (*RoomInfo, error) {
	status, body, err := r.client.get(ctx, "/rooms/thumbs/"+strconv.Itoa(r.id))
	if err != nil {
		return nil, fmt.Errorf("chat: fetching room %d info: %w", r.id, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chat: fetching room %d info: %w", r.id, &ServerError{Status: status})
	}
	var thumbs struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Tags        string `json:"tags"`
	}
	if err := json.Unmarshal(body, &thumbs); err != nil {
		return nil, fmt.Errorf("chat: decoding room %d info: %w", r.id, err)
	}
	var tags []string
	for _, match := range tagPattern.FindAllStringSubmatch(thumbs.Tags, -1) {
		tags = append(tags, match[1])
	}
	return &RoomInfo{
		ID:          thumbs.ID,
		Name:        thumbs.Name,
		Description: thumbs.Description,
		Tags:        tags,
	}, nil
}

// Leave tells the service the account is leaving the room, then closes
// the push socket. A failed leave request is logged but does not keep
// the socket open.
func (r *Room) Leave(ctx context.Context) error {
	form := url.Values{}
	form.Set("fkey", r.fkey)
	form.Set("quiet", "true")
	status, _, err := r.client.postForm(ctx, "/chats/leave/"+strconv.Itoa(r.id), form)
	if err != nil {
		r.logger.Error("leave request failed", "error", err)
	} else if status != http.StatusOK {
		r.logger.Error("leave request failed", "status", status)
	}
	return r.Close()
}

// Close tears down the push socket and stops the read loop. Close is
// idempotent; it returns the socket close error from the first call.
func (r *Room) Close() error {
	r.closeOnce.Do(func() {
		r.closing.Store(true)
		r.closeErr = r.socket.Close()
		r.client.forget(r.id)
	})
	return r.closeErr
}
