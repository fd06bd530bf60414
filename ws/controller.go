package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"roomchat/auth"
	"roomchat/domain/event"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"
	"roomchat/services"
)

type Options struct {
	BufferSize   int
	WriteTimeout time.Duration
	PingPeriod   time.Duration
	ReadLimit    int64
}

// Controller upgrades authenticated requests into live sessions and
// routes their inbound frames.
type Controller struct {
	upgrader   websocket.Upgrader
	tokens     *auth.TokenManager
	users      repositories.IUserRepository
	rooms      services.IRoomService
	messages   services.IMessageService
	registry   *runtime.Registry
	dispatcher *runtime.Dispatcher
	metrics    observability.Recorder
	log        *slog.Logger
	opts       Options
}

func NewController(
	tokens *auth.TokenManager,
	users repositories.IUserRepository,
	rooms services.IRoomService,
	messages services.IMessageService,
	registry *runtime.Registry,
	dispatcher *runtime.Dispatcher,
	metrics observability.Recorder,
	log *slog.Logger,
	opts Options,
) *Controller {
	return &Controller{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		tokens:     tokens,
		users:      users,
		rooms:      rooms,
		messages:   messages,
		registry:   registry,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
		opts:       opts,
	}
}

// Handle authenticates the request, upgrades it and serves the session
// until the peer goes away. Authentication failures are reported over
// plain HTTP, before the upgrade.
func (ct *Controller) Handle(c *gin.Context) {
	userID, err := ct.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	user, err := ct.users.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	socket, err := ct.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ct.log.Warn("upgrade failed", "user_id", userID, "error", err)
		return
	}
	socket.SetReadLimit(ct.opts.ReadLimit)

	conn := NewConn(socket, ct.opts.BufferSize, ct.opts.WriteTimeout)
	sess := runtime.NewSession(userID, conn)
	if err := ct.registry.Register(sess); err != nil {
		conn.Close()
		return
	}
	ct.metrics.ConnectionOpened()
	ct.log.Info("session connected", "session_id", sess.ID, "user_id", userID)
	if err := ct.users.SetOnline(userID, true); err != nil {
		ct.log.Warn("presence update failed", "user_id", userID, "error", err)
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go conn.writePump(ctx, ct.opts.PingPeriod)

	ct.readLoop(ctx, sess, socket, user.Username)
	ct.teardown(ctx, sess, conn, user.Username)
}

// authenticate accepts the token from the query string, the way browser
// WebSocket clients pass it, or from the Authorization header.
func (ct *Controller) authenticate(c *gin.Context) (string, error) {
	if token := c.Query("token"); token != "" {
		return ct.tokens.Verify(token)
	}
	return ct.tokens.VerifyBearer(c.GetHeader("Authorization"))
}

func (ct *Controller) readLoop(ctx context.Context, sess *runtime.Session, socket WireConn, username string) {
	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			return
		}
		ct.handleFrame(ctx, sess, username, data)
	}
}

// teardown removes the session everywhere and announces the departure
// to the rooms it was in. The presence flag clears only when the user's
// last session is gone.
func (ct *Controller) teardown(ctx context.Context, sess *runtime.Session, conn *Conn, username string) {
	rooms := ct.registry.Drop(sess)
	conn.Close()

	for _, roomID := range rooms {
		ct.dispatcher.BroadcastRoom(ctx, roomID, event.MemberLeft{
			RoomID:   roomID,
			UserID:   sess.UserID,
			Username: username,
		}, sess.ID)
	}

	ct.metrics.ConnectionClosed()
	ct.log.Info("session disconnected", "session_id", sess.ID, "user_id", sess.UserID)

	if len(ct.registry.SessionsOfUser(sess.UserID)) == 0 {
		if err := ct.users.SetOnline(sess.UserID, false); err != nil {
			ct.log.Warn("presence update failed", "user_id", sess.UserID, "error", err)
		}
	}
}
