package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careercompass/compass-client/client"
	"github.com/careercompass/compass-client/dashboard"
	"github.com/careercompass/compass-client/internal/config"
	"github.com/careercompass/compass-client/internal/preflight"
	"github.com/careercompass/compass-client/querycache"
	"github.com/careercompass/compass-client/session"
	"github.com/careercompass/compass-client/stream"
	"github.com/careercompass/compass-client/tokens"
)

const appName = "Career Compass"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    tokens.Store
	client   *client.Client
	session  *session.Manager
	service  *dashboard.Service
	closeFns []func() error
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 || args[0] == "help" {
		displayAppname(appName)
		usage()
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := a.session.Initialize(ctx); err != nil {
		return err
	}

	return a.dispatch(ctx, args[0], args[1:])
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store, err := tokens.NewFileStore(cfg.DataFolder, cfg.TokenPassphrase)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.New(cfg.BaseURL, store,
		client.WithLogger(logger),
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	)
	if err != nil {
		return nil, err
	}

	sessionManager, err := session.NewManager(apiClient, store, session.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, store: store, client: apiClient, session: sessionManager}

	cache, err := a.newCache()
	if err != nil {
		return nil, err
	}
	service, err := dashboard.NewService(apiClient, cache,
		dashboard.WithLogger(logger),
		dashboard.WithTTL(cfg.TTL()),
	)
	if err != nil {
		return nil, err
	}
	a.service = service
	return a, nil
}

func (a *app) newCache() (querycache.Store, error) {
	if a.cfg.RedisAddr == "" {
		return querycache.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := querycache.NewRedisStore(ctx, &redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	a.closeFns = append(a.closeFns, store.Close)
	return store, nil
}

func (a *app) close() {
	for _, fn := range a.closeFns {
		if err := fn(); err != nil {
			a.log.Err(err).Msg("close")
		}
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.session.Logout()
	case "whoami":
		return a.whoami(ctx)
	case "change-password":
		return a.changePassword(ctx, args)
	case "delete-account":
		return a.deleteAccount(ctx)
	case "upload":
		return a.upload(ctx, args)
	case "recommendations":
		return a.recommendations(ctx, args)
	case "skills":
		return a.skills(ctx, args)
	case "analysis":
		return a.analysis(ctx, args)
	case "roadmap":
		return a.roadmap(ctx, args)
	case "sections":
		return a.sections(ctx, args)
	case "search":
		return a.search(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Register(ctx, *email, *name, *password); err != nil {
		return err
	}
	fmt.Printf("Registered and logged in as %s\n", *email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", *email)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.session.RefreshUser(ctx); err != nil {
		return err
	}
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in")
		return nil
	}
	since := "unknown"
	if user.CreatedAt != nil {
		since = *user.CreatedAt
	}
	fmt.Printf("%s <%s> (user %d, since %s)\n", user.Name, user.Email, user.UserID, since)
	return nil
}

func (a *app) changePassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ContinueOnError)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.client.ChangePassword(ctx, *current, *next); err != nil {
		return err
	}
	fmt.Println("Password updated")
	return nil
}

func (a *app) deleteAccount(ctx context.Context) error {
	if err := a.session.DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Println("Account deleted")
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	userID := fs.Int("user", 0, "user id")
	path := fs.String("file", "", "resume file (pdf, docx, or txt)")
	streamed := fs.Bool("stream", true, "stream progress events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	file, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := preflight.ReadAll(file)
	if err != nil {
		return err
	}
	report, err := preflight.Inspect(*path, data)
	if err != nil {
		return err
	}
	if report.Characters == 0 {
		return fmt.Errorf("%s contains no extractable text, the server cannot process it", *path)
	}

	if !*streamed {
		result, err := a.service.UploadResume(ctx, *userID, *path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		fmt.Printf("%s (resume %d, %d chunks)\n", result.Message, result.ResumeID, result.ParsedData.TotalChunks)
		return nil
	}

	return a.service.UploadResumeStream(ctx, *userID, *path, bytes.NewReader(data), func(event stream.ProgressEvent) {
		fmt.Printf("  %s\n", event.Type)
	})
}

func (a *app) recommendations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recommendations", flag.ContinueOnError)
	userID := fs.Int("user", 0, "user id")
	interests := fs.String("interests", "", "user interests")
	role := fs.String("role", "", "current role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out, err := a.service.Recommendations(ctx, *userID, client.RecommendationParams{
		UserInterests: *interests,
		CurrentRole:   *role,
	})
	if err != nil {
		return err
	}
	return printJSON(out.Recommendations)
}

func (a *app) skills(ctx context.Context, args []string) error {
	userID, err := userFlag("skills", args)
	if err != nil {
		return err
	}
	out, err := a.service.Skills(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(out.SkillsAnalysis)
}

func (a *app) analysis(ctx context.Context, args []string) error {
	userID, err := userFlag("analysis", args)
	if err != nil {
		return err
	}
	out, err := a.service.Analysis(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(out.Analysis)
}

func (a *app) roadmap(ctx context.Context, args []string) error {
	userID, err := userFlag("roadmap", args)
	if err != nil {
		return err
	}
	out, err := a.service.Roadmap(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(out.Roadmap)
}

func (a *app) sections(ctx context.Context, args []string) error {
	userID, err := userFlag("sections", args)
	if err != nil {
		return err
	}
	out, err := a.client.ResumeSections(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(out.Analysis)
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	userID := fs.Int("user", 0, "user id")
	query := fs.String("query", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out, err := a.service.SearchChunks(ctx, *userID, *query)
	if err != nil {
		return err
	}
	for _, hit := range out.Results {
		fmt.Printf("[%s] %s\n", hit.Section, hit.Content)
	}
	return nil
}

func userFlag(command string, args []string) (int, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	userID := fs.Int("user", 0, "user id")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	return *userID, nil
}

func printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func usage() {
	fmt.Println(`Usage: compass <command> [flags]

Commands:
  register         -email -name -password
  login            -email -password
  logout
  whoami
  change-password  -current -new
  delete-account
  upload           -user -file [-stream=false]
  recommendations  -user [-interests] [-role]
  skills           -user
  analysis         -user
  roadmap          -user
  sections         -user
  search           -user -query`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
