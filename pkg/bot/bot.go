// Package bot exposes panel controls as Telegram commands.
package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/moolex/wallhaven-go/api"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"usbpanel/pkg/mixer"
	"usbpanel/pkg/packet"
	"usbpanel/pkg/proto"
	"usbpanel/pkg/source"
)

type command func(payload string) string

func New(token string, dev proto.Control, d *mixer.Display, loop *mixer.Loop, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return newBot(b, dev, d, loop, logger), nil
}

func newBot(b *tele.Bot, dev proto.Control, d *mixer.Display, loop *mixer.Loop, logger *zap.Logger) *Bot {
	return &Bot{
		b:    b,
		dev:  dev,
		d:    d,
		loop: loop,
		log:  logger.With(zap.String("via", "bot")),
	}
}

type Bot struct {
	b    *tele.Bot
	dev  proto.Control
	d    *mixer.Display
	loop *mixer.Loop
	bg   *source.Background
	wh   *source.Wallhaven
	log  *zap.Logger

	light int
}

// WithBrightness seeds the level /light reports before any change was made.
func (b *Bot) WithBrightness(level int) *Bot {
	b.light = level
	return b
}

// WithBackground enables the wallpaper commands.
func (b *Bot) WithBackground(bg *source.Background, wh *source.Wallhaven) *Bot {
	b.bg = bg
	b.wh = wh
	return b
}

func (b *Bot) commands() map[string]command {
	cmds := map[string]command{
		"/on":     b.on,
		"/off":    b.off,
		"/light":  b.setLight,
		"/rotate": b.rotate,
		"/white":  b.white,
		"/black":  b.black,
		"/redraw": b.redraw,
		"/pause":  b.pause,
		"/resume": b.resume,
	}

	if b.bg != nil {
		cmds["/next"] = b.next
		cmds["/prev"] = b.prev
		cmds["/info"] = b.info
	}
	if b.wh != nil {
		cmds["/query"] = b.query
	}
	return cmds
}

func failed(what string, err error) string {
	return fmt.Sprintf("%s failed: %s", what, err)
}

func (b *Bot) on(string) string {
	if err := b.dev.ScreenOn(); err != nil {
		return failed("open", err)
	}
	b.loop.Wakeup()
	return "OK"
}

func (b *Bot) off(string) string {
	b.loop.Pause()
	if err := b.dev.ScreenOff(); err != nil {
		return failed("close", err)
	}
	return "OK"
}

func (b *Bot) setLight(in string) string {
	if in == "" {
		return strconv.Itoa(b.light)
	}

	level, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return failed("change", err)
	}

	if err := b.dev.SetBrightness(level); err != nil {
		return failed("change", err)
	}

	b.light = level
	return "OK"
}

func (b *Bot) rotate(in string) string {
	o, err := packet.ParseOrientation(in)
	if err != nil {
		return failed("rotate", err)
	}

	if err := b.dev.SetOrientation(o); err != nil {
		return failed("rotate", err)
	}

	b.loop.Wakeup()
	return fmt.Sprintf("OK, %dx%d", b.dev.Width(), b.dev.Height())
}

func (b *Bot) white(string) string {
	b.loop.Pause()
	if err := b.dev.ScreenWhite(); err != nil {
		return failed("white", err)
	}
	return "OK"
}

func (b *Bot) black(string) string {
	b.loop.Pause()
	if err := b.dev.ScreenBlack(); err != nil {
		return failed("black", err)
	}
	return "OK"
}

func (b *Bot) redraw(string) string {
	if err := b.d.RedrawFull(); err != nil {
		return failed("redraw", err)
	}
	return "OK"
}

func (b *Bot) pause(string) string {
	b.loop.Pause()
	return "OK"
}

func (b *Bot) resume(string) string {
	b.loop.Wakeup()
	return "OK"
}

func (b *Bot) next(string) string {
	if _, err := b.bg.Next(); err != nil {
		return failed("next", err)
	}
	b.loop.Wakeup()
	return "OK"
}

func (b *Bot) prev(string) string {
	if _, err := b.bg.Previous(); err != nil {
		return failed("prev", err)
	}
	b.loop.Wakeup()
	return "OK"
}

func (b *Bot) info(string) string {
	if b.wh == nil || b.wh.Current() == nil {
		return "Current no wallpaper"
	}

	wp := b.wh.Current().Wallpaper
	lines := []string{
		fmt.Sprintf("Category: %s", wp.Category),
		fmt.Sprintf("Purity: %s", wp.Purity),
		fmt.Sprintf("Views: %d", wp.Views),
		fmt.Sprintf("Favorites: %d", wp.Favorites),
		fmt.Sprintf("Resolution: %s", wp.Resolution),
		fmt.Sprintf("File size: %s", bytesize.New(float64(wp.FileSize)).String()),
		fmt.Sprintf("URL: %s", wp.Url),
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) query(in string) string {
	err := b.wh.Requery(func(q *api.QueryCond) {
		q.Query = in
		q.SortBy(api.SortViews)
	})
	if err != nil {
		return failed("update", err)
	}
	return b.next("")
}

func (b *Bot) Start() {
	for name, cmd := range b.commands() {
		name, cmd := name, cmd
		b.b.Handle(name, func(c tele.Context) error {
			b.log.With(zap.String("command", name), zap.String("payload", c.Message().Payload)).Info("received")
			return c.Reply(cmd(c.Message().Payload))
		})
	}
	go b.b.Start()
}

func (b *Bot) Stop() {
	go b.b.Stop()
}
