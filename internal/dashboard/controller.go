package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/view"
)

// Controller — точка подключения пользовательских действий к циклу
// синхронизации. Контракт нейтрален к UI-тулкиту: HTTP-обработчики консоли
// просто дергают эти методы, как браузерные колбэки дергали бы слушателей.
type Controller struct {
	loop   *SyncLoop
	store  *view.Store
	logger *zap.Logger
}

func NewController(loop *SyncLoop, store *view.Store, logger *zap.Logger) *Controller {
	return &Controller{
		loop:   loop,
		store:  store,
		logger: logger.Named("controller"),
	}
}

// OnFilterChange меняет фильтр риска и немедленно перезапускает батч,
// не дожидаясь таймера.
func (c *Controller) OnFilterChange(ctx context.Context, risk string) {
	f := c.loop.Filter()
	f.Risk = risk
	c.apply(ctx, f)
}

// OnSearchChange меняет строку поиска и немедленно перезапускает батч.
// Дебаунса нет намеренно — каденс refresh сам сглаживает поток.
func (c *Controller) OnSearchChange(ctx context.Context, search string) {
	f := c.loop.Filter()
	f.Search = search
	c.apply(ctx, f)
}

// OnQueryChange — фильтр и поиск одним действием (сабмит формы).
func (c *Controller) OnQueryChange(ctx context.Context, risk, search string) {
	c.apply(ctx, Filter{Risk: risk, Search: search})
}

func (c *Controller) apply(ctx context.Context, f Filter) {
	c.loop.SetFilter(f)
	if err := c.loop.Refresh(ctx); err != nil {
		c.store.SetStatus("Connection issue: " + err.Error())
	}
}

// OnReload — ручная перезагрузка: пересчет на бэкенде + полный refresh.
func (c *Controller) OnReload(ctx context.Context) {
	if err := c.loop.Reload(ctx); err != nil {
		c.store.SetStatus("Reload failed: " + err.Error())
	}
}

// OnToggleAutoRefresh переключает автообновление, возвращает новое значение.
func (c *Controller) OnToggleAutoRefresh() bool {
	return c.store.ToggleAutoRefresh()
}

// OnRowSelect — клик по строке таблицы.
func (c *Controller) OnRowSelect(ctx context.Context, subjectID int) {
	c.loop.SelectPatient(ctx, subjectID)
}

// OnAlertSelect — клик по записи в ленте алертов.
func (c *Controller) OnAlertSelect(ctx context.Context, subjectID int) {
	c.loop.SelectPatient(ctx, subjectID)
}
