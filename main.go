package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
	"gitlab.com/aoterocom/AOBacktester/models"
	natsStream "gitlab.com/aoterocom/AOBacktester/providers/nats"
	"gitlab.com/aoterocom/AOBacktester/providers/rest"
	"gitlab.com/aoterocom/AOBacktester/providers/socketio"
	"gitlab.com/aoterocom/AOBacktester/providers/telegram"
	"gitlab.com/aoterocom/AOBacktester/services"
	"gitlab.com/aoterocom/AOBacktester/ui"
)

func main() {
	if err := helpers.LoadEnv(os.Getenv("envFile")); err != nil {
		log.Fatalln(err)
	}

	app := &cli.App{
		Name:  "aobacktester",
		Usage: "edit a backtest configuration, run it and follow its log",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "ui",
				Usage:  "interactive terminal screen",
				Action: runUI,
			},
			{
				Name:   "run",
				Usage:  "run one backtest and print its log to stdout",
				Flags:  configFlags(),
				Action: runHeadless,
			},
		},
		Action: runUI,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "api-base-url", Usage: "backtest service address", EnvVars: []string{"apiBaseUrl"}},
		&cli.StringFlag{Name: "run-method", Usage: "POST sends the config, GET uses the server side one", EnvVars: []string{"runMethod"}},
		&cli.StringFlag{Name: "log-transport", Usage: "poll, socketio or nats", EnvVars: []string{"logTransport"}},
		&cli.StringFlag{Name: "poll-interval", Usage: "log poll cadence, 100ms to 2s", EnvVars: []string{"pollInterval"}},
		&cli.StringFlag{Name: "metrics-addr", Usage: "serve prometheus metrics on this address", EnvVars: []string{"metricsAddr"}},
	}
}

func configFlags() []cli.Flag {
	defaults := models.NewDefaultBacktestConfig()
	return []cli.Flag{
		&cli.StringFlag{Name: "symbol", Value: defaults.Symbol},
		&cli.StringFlag{Name: "interval", Value: string(defaults.Interval)},
		&cli.Float64Flag{Name: "confidence", Value: defaults.Confidence},
		&cli.IntFlag{Name: "target-candle", Value: defaults.TargetCandle},
		&cli.Float64Flag{Name: "profit", Value: defaults.ProfitPerc},
		&cli.Float64Flag{Name: "stop-loss", Value: defaults.StopLossPerc},
		&cli.Float64Flag{Name: "stop-loss-multiplier", Usage: "link the stop loss to the profit with this multiplier"},
		&cli.IntFlag{Name: "gap", Value: defaults.GapBetweenTrades},
		&cli.StringFlag{Name: "feature-horizons", Value: services.FormatFeatureHorizons(defaults.FeatureHorizons)},
		&cli.IntFlag{Name: "max-positions", Value: defaults.MaxPositions},
		&cli.Float64Flag{Name: "long-bias", Value: defaults.LongBias},
		&cli.IntFlag{Name: "leverage", Value: defaults.Leverage},
	}
}

func clientConfig(c *cli.Context) (helpers.ClientConfig, error) {
	config, err := helpers.LoadClientConfig()
	if err != nil {
		return config, err
	}
	if c.IsSet("api-base-url") {
		config.APIBaseURL = c.String("api-base-url")
	}
	if c.IsSet("run-method") {
		config.RunMethod = models.RunMethod(c.String("run-method"))
	}
	if c.IsSet("log-transport") {
		config.LogTransport = helpers.LogTransport(c.String("log-transport"))
	}
	if c.IsSet("poll-interval") {
		config.PollInterval, err = helpers.ParseDuration(c.String("poll-interval"))
		if err != nil {
			return config, err
		}
	}
	if c.IsSet("metrics-addr") {
		config.MetricsAddr = c.String("metrics-addr")
	}
	err = config.Check()
	return config, err
}

type client struct {
	configService      *services.ConfigService
	linkedRatioService *services.LinkedRatioService
	logBuffer          *models.LogBuffer
	runner             interfaces.Runner
	completed          chan string
	close              func()
}

func newClient(config helpers.ClientConfig) (*client, error) {
	if err := helpers.InitLogger(config.LogFile, config.LogLevel); err != nil {
		return nil, err
	}
	if config.TelegramOutput {
		helpers.Logger.SetMirror(telegram.NewNotifier(config.TelegramToken, config.TelegramChatId))
	}
	if config.MetricsAddr != "" {
		helpers.ServeMetrics(config.MetricsAddr)
	}

	configService := services.NewConfigService(models.NewDefaultBacktestConfig())
	cl := &client{
		configService:      configService,
		linkedRatioService: services.NewLinkedRatioService(configService),
		logBuffer:          models.NewLogBuffer(),
		completed:          make(chan string, 1),
		close:              func() {},
	}
	onComplete := func(line string) {
		helpers.Logger.Infoln("Backtest finished: " + line)
		select {
		case cl.completed <- line:
		default:
		}
	}

	switch config.LogTransport {
	case helpers.LogTransportPoll:
		backtestClient := rest.NewBacktestClient(config.APIBaseURL, config.RunMethod, config.RequestTimeout)
		poller := services.NewLogPollerService(backtestClient, cl.logBuffer, config.PollInterval)
		poller.SetOnComplete(onComplete)
		cl.runner = services.NewRunService(configService, backtestClient, cl.logBuffer, poller)
	case helpers.LogTransportSocketIO, helpers.LogTransportNats:
		var stream interfaces.LogStream
		if config.LogTransport == helpers.LogTransportNats {
			stream = natsStream.NewLogStream(config.NatsURL, config.NatsSubjectPrefix)
		} else {
			socketStream, err := socketio.NewLogStream(config.APIBaseURL)
			if err != nil {
				return nil, err
			}
			stream = socketStream
		}
		streamRunner := services.NewStreamRunService(stream, cl.logBuffer)
		streamRunner.SetOnComplete(onComplete)
		cl.runner = streamRunner
		cl.close = func() {
			if err := streamRunner.Close(); err != nil {
				helpers.Logger.Warnln("stream: " + err.Error())
			}
		}
	}

	helpers.Logger.Infoln(fmt.Sprintf("Backtester started against %s (%s, %s)", config.APIBaseURL, config.RunMethod, config.LogTransport))
	return cl, nil
}

func runUI(c *cli.Context) error {
	config, err := clientConfig(c)
	if err != nil {
		return err
	}
	cl, err := newClient(config)
	if err != nil {
		return err
	}
	defer cl.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	form := ui.NewForm(cl.configService, cl.linkedRatioService)
	return ui.NewUserInterface(form, cl.runner, cl.logBuffer).Run(ctx)
}

func runHeadless(c *cli.Context) error {
	config, err := clientConfig(c)
	if err != nil {
		return err
	}
	cl, err := newClient(config)
	if err != nil {
		return err
	}
	defer cl.close()

	if err := applyConfigFlags(c, cl); err != nil {
		return err
	}
	for _, problem := range cl.configService.Validate() {
		fmt.Fprintln(os.Stderr, "warning: "+problem.Error())
	}

	cl.logBuffer.OnAppend(func(lines []string) {
		for _, line := range ui.DisplayLines(lines) {
			fmt.Println(line)
		}
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := cl.runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, handle.String())

	select {
	case <-cl.completed:
		return nil
	case <-ctx.Done():
		cl.runner.Stop()
		return fmt.Errorf("interrupted before the backtest finished")
	}
}

func applyConfigFlags(c *cli.Context, cl *client) error {
	updates := []models.ConfigUpdate{
		{Field: models.FieldSymbol, Value: c.String("symbol")},
		{Field: models.FieldInterval, Value: c.String("interval")},
		{Field: models.FieldConfidence, Value: c.Float64("confidence")},
		{Field: models.FieldTargetCandle, Value: c.Int("target-candle")},
		{Field: models.FieldStopLossPerc, Value: c.Float64("stop-loss")},
		{Field: models.FieldGapBetweenTrades, Value: c.Int("gap")},
		{Field: models.FieldMaxPositions, Value: c.Int("max-positions")},
		{Field: models.FieldLongBias, Value: c.Float64("long-bias")},
		{Field: models.FieldLeverage, Value: c.Int("leverage")},
	}
	for _, update := range updates {
		if _, err := cl.configService.Update(update); err != nil {
			return err
		}
	}
	cl.configService.SetFeatureHorizonsText(c.String("feature-horizons"))

	if c.IsSet("stop-loss-multiplier") {
		if _, err := cl.linkedRatioService.SetLinked(true); err != nil {
			return err
		}
		if _, err := cl.linkedRatioService.SetProfit(c.Float64("profit")); err != nil {
			return err
		}
		_, err := cl.linkedRatioService.SetMultiplier(c.Float64("stop-loss-multiplier"))
		return err
	}
	_, err := cl.linkedRatioService.SetProfit(c.Float64("profit"))
	return err
}
