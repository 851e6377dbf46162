package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// successIdx - индекс, который возвращается в случае успешного закрытия всех ресурсов
	successIdx = -1

	defaultForcedTimeout = 2 * time.Second
)

// Closer обеспечивает потокобезопасное закрытие ресурсов.
type Closer struct {
	resources     []resource
	mu            sync.Mutex
	once          sync.Once
	forcedTimeout time.Duration
}

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name string
	fn   Func
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие оставшихся ресурсов, если контекст Close истёк.
func NewCloser(forcedTimeout time.Duration) *Closer {
	if forcedTimeout == 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{
		forcedTimeout: forcedTimeout,
	}
}

// Add регистрирует безымянный ресурс.
func (c *Closer) Add(f Func) {
	c.AddNamed("", f)
}

// AddNamed регистрирует ресурс; имя попадает в текст ошибки закрытия.
func (c *Closer) AddNamed(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, fn: f})
}

// Close последовательно закрывает ресурсы в порядке LIFO.
// Если контекст отменяется до завершения, оставшиеся ресурсы закрываются принудительно.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		resources := c.resources
		c.mu.Unlock()

		stopIdx, errs := c.gracefulClose(ctx, resources)
		if stopIdx == successIdx {
			if len(errs) > 0 {
				err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
			}

			return
		}

		remaining := resources[:stopIdx+1]
		errs = append(errs, c.forcedClose(remaining)...)

		err = fmt.Errorf(
			"shutdown interrupted after %d/%d funcs:\n%s",
			len(resources)-1-stopIdx,
			len(resources),
			strings.Join(errs, "\n"),
		)
	})

	return err
}

// gracefulClose возвращает индекс ресурса, на котором истёк контекст, либо successIdx.
func (c *Closer) gracefulClose(ctx context.Context, resources []resource) (int, []string) {
	var errs []string
	for i := len(resources) - 1; i >= 0; i-- {
		var (
			r    = resources[i]
			done = make(chan error, 1)
		)

		go func() {
			done <- r.fn(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Sprintf("[!] %s", describe(r.name, err)))
			}
		case <-ctx.Done():
			return i, errs
		}
	}

	return successIdx, errs
}

// forcedClose параллельно закрывает оставшиеся ресурсы с собственным таймаутом.
func (c *Closer) forcedClose(resources []resource) []string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("[FORCED] %s", describe(r.name, err)))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}

func describe(name string, err error) string {
	if name == "" {
		return err.Error()
	}
	return name + ": " + err.Error()
}
