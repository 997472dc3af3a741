package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/infra"
	"github.com/xela07ax/icu-console/internal/view"
)

// Channel — подписка на push-канал алертов. Строго advisory: каждое входящее
// сообщение обновляет только метку свежести, в снапшот пациентов и алертов
// канал не пишет никогда. Любой его отказ консоль переживает молча —
// авторитетные данные все равно приходят поллингом.
type Channel struct {
	url     string
	store   *view.Store
	logger  *zap.Logger
	metrics *infra.Metrics
}

// pushMessage — минимальный контракт сообщения: нужен только timestamp.
// Остальные поля (summary, top_alerts) сознательно игнорируются.
type pushMessage struct {
	Timestamp string `json:"timestamp"`
}

func NewChannel(url string, store *view.Store, logger *zap.Logger, metrics *infra.Metrics) *Channel {
	return &Channel{
		url:     url,
		store:   store,
		logger:  logger.Named("live-channel"),
		metrics: metrics,
	}
}

// Run — "живучий" цикл подписки: подключился, читаем до обрыва, ждем, снова.
// Монотонный guard в сторе гарантирует, что редайл не продублирует и не
// переупорядочит эффект свежести.
func (c *Channel) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn("live channel unavailable, dashboard continues on polling", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(15 * time.Second):
			}
			continue
		}

		c.readLoop(ctx, conn)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// dial подключается с экспоненциальным бэкоффом между попытками.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(5),
	)
	err := r.Do(func() error {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var dialErr error
		conn, _, dialErr = websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
		return dialErr
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Разбудить заблокированный ReadMessage при остановке приложения
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("live channel read failed, reconnecting", zap.Error(err))
			}
			return
		}

		var msg pushMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("ignoring malformed push message", zap.Error(err))
			continue
		}

		ts, err := time.Parse(time.RFC3339, msg.Timestamp)
		if err != nil {
			c.logger.Debug("ignoring push message without valid timestamp", zap.String("timestamp", msg.Timestamp))
			continue
		}

		if c.store.SetFreshness("Live stream "+ts.Format("15:04:05"), ts) {
			c.metrics.LiveMessages.Inc()
		}
	}
}
