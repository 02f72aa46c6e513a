// Copyright 2026 The Fireside Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/firesidehq/fireside/lib/netutil"
	"github.com/firesidehq/fireside/stream"
)

// ClientConfig carries the parameters needed to construct a Client.
type ClientConfig struct {
	// BaseURL is the root of the chat service, e.g.
	// "https://chat.example.com". Required.
	BaseURL string

	// HTTPClient is the HTTP client used for API requests. If nil, a
	// client that does not follow redirects is constructed: several
	// endpoints signal errors with a 302 that must be observed rather
	// than chased. A caller-supplied client should disable redirect
	// following the same way.
	HTTPClient *http.Client

	// Dialer establishes push socket connections. If nil, a
	// gorilla/websocket dialer is used.
	Dialer SocketDialer

	// Logger receives client diagnostics. If nil, slog.Default() is
	// used.
	Logger *slog.Logger

	// FrameObserver, if non-nil, is called with every raw push frame
	// before it is decoded, on the room's read goroutine. Used for
	// frame capture; it must not retain payload past the call.
	FrameObserver func(roomID int, payload []byte)
}

// Client talks to a chat service. It is safe for concurrent use; each
// joined room gets its own Room with an independent push socket.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     SocketDialer
	logger     *slog.Logger
	observer   func(roomID int, payload []byte)

	mu    sync.Mutex
	rooms map[int]*Room
}

// NewClient constructs a Client from the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("chat: ClientConfig.BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("chat: invalid base URL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("chat: base URL %q must be http or https", config.BaseURL)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = websocketDialer{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: httpClient,
		dialer:     dialer,
		logger:     logger,
		observer:   config.FrameObserver,
		rooms:      make(map[int]*Room),
	}, nil
}

// fkeyPattern extracts the session fkey from a room page. The fkey is
// a hidden form input and must accompany every state-changing request.
var fkeyPattern = regexp.MustCompile(`name="fkey"[^>]*value="([0-9a-f]+)"`)

// inputBoxMarker is present in the room page markup only when the
// account is allowed to post.
var inputBoxMarker = []byte(`<textarea id="input">`)

// JoinRoom connects to a room: it fetches the room page, extracts the
// session fkey, negotiates the push socket URL, dials the socket, and
// starts the read loop. Joining a room that is already joined returns
// the existing Room.
//
// A 404 on the room page yields a *RoomNotFoundError.
func (c *Client) JoinRoom(ctx context.Context, roomID int) (*Room, error) {
	c.mu.Lock()
	if room, ok := c.rooms[roomID]; ok {
		c.mu.Unlock()
		return room, nil
	}
	c.mu.Unlock()

	status, page, err := c.get(ctx, "/rooms/"+strconv.Itoa(roomID))
	if err != nil {
		return nil, fmt.Errorf("chat: fetching room %d page: %w", roomID, err)
	}
	if status == http.StatusNotFound {
		return nil, &RoomNotFoundError{RoomID: roomID}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("chat: fetching room %d page: %w", roomID, &ServerError{Status: status})
	}

	match := fkeyPattern.FindSubmatch(page)
	if match == nil {
		return nil, fmt.Errorf("chat: room %d page carries no fkey", roomID)
	}
	fkey := string(match[1])
	canPost := bytes.Contains(page, inputBoxMarker)

	logger := c.logger.With("room", roomID)
	room := &Room{
		id:       roomID,
		fkey:     fkey,
		canPost:  canPost,
		client:   c,
		logger:   logger,
		decoder:  stream.NewDecoder(roomID, logger),
		registry: stream.NewRegistry(),
		done:     make(chan struct{}),
	}

	socketURL, err := room.socketURL(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Origin", c.baseURL)
	socket, err := c.dialer.DialSocket(ctx, socketURL, header)
	if err != nil {
		return nil, err
	}
	room.socket = socket
	go room.readLoop()

	c.mu.Lock()
	c.rooms[roomID] = room
	c.mu.Unlock()

	logger.Info("joined room", "can_post", canPost)
	return room, nil
}

// Close leaves no rooms but tears down every open push socket. Pending
// ReadMessage calls return with an error and the rooms' read loops
// exit.
func (c *Client) Close() error {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	var firstErr error
	for _, room := range rooms {
		if err := room.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// forget removes a room from the joined set. Called when a room is
// closed so a later JoinRoom reconnects instead of handing back the
// dead Room.
func (c *Client) forget(roomID int) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

// get performs a GET against the chat service and returns the status
// code and bounded body.
func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	return c.do(request)
}

// postForm performs a form-encoded POST against the chat service and
// returns the status code and bounded body.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (int, []byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(request)
}

func (c *Client) do(request *http.Request) (int, []byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		io.Copy(io.Discard, response.Body)
		response.Body.Close()
	}()
	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return response.StatusCode, nil, err
	}
	return response.StatusCode, body, nil
}

// postJSON performs a form-encoded POST and decodes a JSON response
// body into out. Non-2xx statuses are returned to the caller with out
// untouched.
func (c *Client) postJSON(ctx context.Context, path string, form url.Values, out any) (int, error) {
	status, body, err := c.postForm(ctx, path, form)
	if err != nil {
		return status, err
	}
	if status < 200 || status > 299 {
		return status, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return status, fmt.Errorf("chat: decoding %s response: %w", path, err)
	}
	return status, nil
}
