package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/depicta/internal/cache"
	"github.com/ppiankov/depicta/internal/comments"
	"github.com/ppiankov/depicta/internal/gateway"
	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/imagesrc"
	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/regions"
	"github.com/ppiankov/depicta/internal/search"
	"github.com/ppiankov/depicta/internal/worker"
)

// entity flags shared by the annotation commands
var (
	entityID     string
	entityDomain string
	imageSrc     string
	imageSrcset  string
	imageWidth   float64
	imageHeight  float64
	owner        string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&entityID, "entity", "", "entity id, e.g. Q42")
	flags.StringVar(&entityDomain, "domain", "", "sync domain (default: server.domain)")
	flags.StringVar(&imageSrc, "image", "", "image URL or local file of the entity")
	flags.StringVar(&imageSrcset, "srcset", "", `thumbnail srcset ("url 1x, url 2x")`)
	flags.Float64Var(&imageWidth, "width", 0, "natural image width (probed from a local --image when omitted)")
	flags.Float64Var(&imageHeight, "height", 0, "natural image height")
	flags.StringVar(&owner, "owner", "", "whose annotations to review (default: the session user)")
}

// app carries what every annotation command needs.
type app struct {
	cfg *model.Config
	log *logger.Logger
	gw  *gateway.Client
}

// newApp loads the config and opens a server session.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	gw, err := gateway.New(gateway.Options{
		BaseURL:    cfg.Server.BaseURL,
		Domain:     cfg.Server.Domain,
		UserAgent:  cfg.Server.UserAgent,
		Timeout:    cfg.Server.Timeout,
		HTTPProxy:  cfg.Server.HTTPProxy,
		HTTPSProxy: cfg.Server.HTTPSProxy,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Server.Username == "" {
		return nil, fmt.Errorf("no username: pass --user or set server.username")
	}
	if err := gw.Open(ctx, cfg.Server.Username); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Session opened on %s as %s\n", cfg.Server.BaseURL, cfg.Server.Username)
	}
	return &app{cfg: cfg, log: log, gw: gw}, nil
}

func newSearch(cfg *model.Config, log *logger.Logger) (*search.Client, error) {
	return search.New(search.Options{
		Endpoint:  cfg.Search.Endpoint,
		Language:  cfg.Search.Language,
		UserAgent: cfg.Server.UserAgent,
		Timeout:   cfg.Search.Timeout,
		CacheTTL:  cfg.Cache.MemoryTTL,
		Cache:     cache.New(cfg.Cache),
		Limiter:   worker.NewLimiter(cfg.Search.RequestsPerSecond, cfg.Search.Burst),
		Logger:    log,
	})
}

// entity builds the entity from the flags.
func (a *app) entity() (model.Entity, error) {
	if entityID == "" {
		return model.Entity{}, fmt.Errorf("--entity is required")
	}
	e := model.Entity{
		ID:     entityID,
		Domain: entityDomain,
		Image:  model.Image{Src: imageSrc, Srcset: imageSrcset, Width: imageWidth, Height: imageHeight},
	}
	if e.Domain == "" {
		e.Domain = a.cfg.Server.Domain
	}
	if (e.Image.Width <= 0 || e.Image.Height <= 0) && imageSrc != "" {
		if _, err := os.Stat(imageSrc); err == nil {
			size, format, err := imagesrc.NaturalSizeFile(imageSrc)
			if err != nil {
				return e, fmt.Errorf("probe image size: %w", err)
			}
			e.Image.Width, e.Image.Height = size.Width, size.Height
			a.log.Debug("image size probed", "src", imageSrc, "format", format, "width", size.Width, "height", size.Height)
		}
	}
	return e, nil
}

func (a *app) editor(ctx context.Context) (*regions.Editor, error) {
	e, err := a.entity()
	if err != nil {
		return nil, err
	}
	ed := regions.New(e, a.gw, regions.Options{
		Username:   owner,
		Properties: a.cfg.PropertyIDs(),
		Logger:     a.log,
	})
	if err := ed.Load(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

func (a *app) threads(ed *regions.Editor) *comments.Threads {
	return comments.New(ed.Entity().ID, ed, a.gw, a.log)
}

// loadThreads replays the comments of the reviewed user, or of the session
// user's own annotations when no owner is given.
func loadThreads(ctx context.Context, th *comments.Threads) error {
	if owner != "" {
		return th.LoadAll(ctx, owner)
	}
	return th.LoadOwn(ctx)
}

// parseCrop reads "x,y,width,height" in image pixels.
func parseCrop(s string) (geometry.Crop, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Crop{}, fmt.Errorf("crop must be x,y,width,height: %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Crop{}, fmt.Errorf("crop %q: %w", s, err)
		}
		v[i] = f
	}
	return geometry.Crop{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// statusChecker counts comments for the batch status check.
type statusChecker struct {
	gw *gateway.Client
}

func (s statusChecker) Approved(ctx context.Context, entityID, username string) (bool, error) {
	return s.gw.Approved(ctx, entityID, username)
}

func (s statusChecker) ListComments(ctx context.Context, entityID, username string) (int, error) {
	c, err := s.gw.ListComments(ctx, entityID, username)
	return len(c), err
}
