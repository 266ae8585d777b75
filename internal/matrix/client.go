// Package matrix connects Murshid to a Matrix homeserver: it syncs incoming
// text, voice, and image messages into the conversation router and sends the
// replies back.
package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// conversationSeparator joins room and sender into one conversation ID. Room
// IDs and user IDs both contain ':', so a character outside both grammars is
// used.
const conversationSeparator = "|"

// Config holds the Matrix connection settings.
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// Rooms is the list of room IDs Murshid listens in. Empty means every
	// joined room.
	Rooms []string
	// DB optionally persists the sync token across restarts. When nil the
	// full room history replays on every start.
	DB *sql.DB
}

// Handler receives inbound conversation events.
type Handler interface {
	HandleText(ctx context.Context, conversationID, text string)
	HandleAudio(ctx context.Context, conversationID string, audio []byte)
	HandleImage(ctx context.Context, conversationID, imageURL string)
}

// Client wraps the mautrix client.
type Client struct {
	client  *mautrix.Client
	config  *Config
	stopCh  chan struct{}
	handler Handler
}

// ConversationID builds the conversation key for a room and sender pair.
func ConversationID(roomID, senderID string) string {
	return roomID + conversationSeparator + senderID
}

// splitConversationID recovers the room from a conversation ID.
func splitConversationID(conversationID string) (roomID string) {
	if idx := strings.Index(conversationID, conversationSeparator); idx >= 0 {
		return conversationID[:idx]
	}
	return conversationID
}

// New creates a Matrix client.
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("matrix: create client: %w", err)
	}

	c := &Client{
		client: client,
		config: config,
		stopCh: make(chan struct{}),
	}

	if config.DB != nil {
		client.Store = newDBSyncStore(config.DB)
	} else {
		slog.Warn("no sync store configured, room history will replay on restart")
	}

	return c, nil
}

// Start joins the configured rooms and begins syncing in the background,
// reconnecting with exponential back-off when the sync loop fails.
func (c *Client) Start(ctx context.Context, handler Handler) error {
	c.handler = handler

	syncer := c.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, c.handleMessage)

	for _, roomID := range c.config.Rooms {
		if err := c.joinRoom(ctx, id.RoomID(roomID)); err != nil {
			return fmt.Errorf("matrix: join room %s: %w", roomID, err)
		}
	}

	go func() {
		const (
			backoffMin = 2 * time.Second
			backoffMax = 5 * time.Minute
		)
		backoff := backoffMin
		for {
			backoff = backoffMin
			if err := c.client.Sync(); err != nil {
				select {
				case <-c.stopCh:
					return
				default:
				}
				slog.Error("sync stopped, reconnecting", "error", err, "backoff", backoff)
				select {
				case <-c.stopCh:
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > backoffMax {
					backoff = backoffMax
				}
				continue
			}
			return
		}
	}()

	return nil
}

// Stop shuts down the sync loop.
func (c *Client) Stop() {
	close(c.stopCh)
	c.client.StopSync()
}

// SendText sends a plain text message to the conversation's room.
func (c *Client) SendText(ctx context.Context, conversationID, text string) error {
	roomID := splitConversationID(conversationID)
	if _, err := c.client.SendText(ctx, id.RoomID(roomID), text); err != nil {
		return fmt.Errorf("matrix: send to %s: %w", roomID, err)
	}
	return nil
}

// handleMessage routes one inbound event to the registered handler.
func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == id.UserID(c.config.UserID) {
		return
	}
	if !c.listensIn(evt.RoomID.String()) {
		return
	}

	content := evt.Content.AsMessage()
	if content == nil || c.handler == nil {
		return
	}

	conversationID := ConversationID(evt.RoomID.String(), evt.Sender.String())

	switch content.MsgType {
	case event.MsgText:
		c.handler.HandleText(ctx, conversationID, content.Body)

	case event.MsgAudio:
		audio, err := c.downloadMedia(ctx, content.URL)
		if err != nil {
			slog.Warn("voice note download failed", "room", evt.RoomID, "error", err)
			return
		}
		c.handler.HandleAudio(ctx, conversationID, audio)

	case event.MsgImage:
		c.handler.HandleImage(ctx, conversationID, string(content.URL))
	}
}

// listensIn reports whether Murshid handles messages in this room.
func (c *Client) listensIn(roomID string) bool {
	if len(c.config.Rooms) == 0 {
		return true
	}
	for _, r := range c.config.Rooms {
		if r == roomID {
			return true
		}
	}
	return false
}

// downloadMedia fetches media bytes from the content repository.
func (c *Client) downloadMedia(ctx context.Context, url id.ContentURIString) ([]byte, error) {
	uri, err := url.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse content uri: %w", err)
	}
	data, err := c.client.DownloadBytes(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return data, nil
}

func (c *Client) joinRoom(ctx context.Context, roomID id.RoomID) error {
	_, err := c.client.JoinRoomByID(ctx, roomID)
	if err != nil {
		// M_FORBIDDEN also covers "already a member" on some homeservers.
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("join refused, continuing", "room", roomID)
			return nil
		}
		return err
	}
	return nil
}
