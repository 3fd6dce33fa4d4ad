package source

import (
	"strings"
	"sync"

	"github.com/moolex/wallhaven-go/api"
	"github.com/moolex/wallhaven-go/utils"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"usbpanel/pkg/proto"
)

type WallhavenQuery struct {
	Key      string `yaml:"key"`
	Query    string `yaml:"query"`
	Category string `yaml:"category"`
	Purity   string `yaml:"purity"`
	Ratio    string `yaml:"ratio"`
	Sorting  string `yaml:"sorting"`
	TopRange string `yaml:"toplist"`
	Random   bool   `yaml:"random"`
}

func (wq WallhavenQuery) build() *api.QueryCond {
	q := api.NewQuery(wq.Query)
	if wq.Category != "" {
		q.SetCategory(strings.Split(wq.Category, ",")...)
	}
	if wq.Purity != "" {
		q.SetPurity(strings.Split(wq.Purity, ",")...)
	}
	if wq.Ratio != "" {
		q.SetRatio(wq.Ratio)
	}
	if wq.Random {
		q.Random()
	} else if wq.Sorting != "" {
		q.SortBy(wq.Sorting)
	} else if wq.TopRange != "" {
		q.SortBy(api.SortTopList)
		q.TopRange = wq.TopRange
	}
	return q
}

// Picked is a wallpaper rendered for the panel.
type Picked struct {
	Wallpaper *api.Wallpaper
	Width     int
	Height    int
	Pixels    []byte
}

func NewWallhaven(wq WallhavenQuery, loader *Loader, logger *zap.Logger) *Wallhaven {
	wh := api.New(wq.Key)
	wh.SetLogger(logger)

	return &Wallhaven{
		api:    wh,
		q:      wq.build(),
		loader: loader,
		log:    logger.With(zap.String("via", "wallhaven")),
		max:    3,
	}
}

type Wallhaven struct {
	mu      sync.Mutex
	api     *api.API
	q       *api.QueryCond
	r       *api.QueryResult
	loader  *Loader
	log     *zap.Logger
	max     int
	history []*Picked
}

// Next picks the following wallpaper of the search and fills it to the size.
func (w *Wallhaven) Next(width, height int) (*Picked, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.r == nil {
		ret, err := w.api.Query(w.q)
		if err != nil {
			return nil, proto.ImageError("wallhaven", errors.Wrap(err, "query failed"))
		}
		w.r = ret
	}

	wp, err := w.r.Pick(api.PickLoop, api.PickRand)
	if err != nil {
		if errors.Is(err, api.ErrNoMoreItems) {
			w.q.Page = 1
			w.r = nil
		}
		return nil, proto.ImageError("wallhaven", errors.Wrap(err, "get wallpaper failed"))
	}

	img, err := utils.GetThumbImage(wp, api.ThumbOriginal)
	if err != nil {
		return nil, proto.ImageError("wallhaven", errors.Wrap(err, "get thumb image failed"))
	}

	pix, err := w.loader.Fit(img, width, height)
	if err != nil {
		return nil, err
	}

	w.log.With(zap.String("id", wp.Id), zap.String("url", wp.Url)).Debug("picked")

	p := &Picked{Wallpaper: wp, Width: width, Height: height, Pixels: pix}
	w.push(p)
	return p, nil
}

// Requery replaces the search and starts again from the first page.
func (w *Wallhaven) Requery(update func(q *api.QueryCond)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.q.Page = 1
	update(w.q)

	ret, err := w.api.Query(w.q)
	if err != nil {
		return errors.Wrap(err, "query failed")
	}
	w.r = ret
	return nil
}

func (w *Wallhaven) push(p *Picked) {
	w.history = append(w.history, p)
	if len(w.history) > w.max {
		w.history = w.history[1:]
	}
}

func (w *Wallhaven) Current() *Picked {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, _ := lo.Last(w.history)
	return p
}

// Previous drops the current wallpaper from the history and returns the one
// before it, so repeated calls keep stepping back. It returns nil once a
// single entry is left.
func (w *Wallhaven) Previous() *Picked {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.history) < 2 {
		return nil
	}
	w.history = lo.DropRight(w.history, 1)
	p, _ := lo.Last(w.history)
	return p
}
