package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/psds-microservice/support-chat/internal/apiclient"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/logger"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/ticketsync"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatOpts struct {
	server   string
	poll     time.Duration
	timeout  time.Duration
	logLevel string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal chat client for a running server",
	RunE:  runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatOpts.server, "server", "http://localhost:5000", "support-chat base URL")
	f.DurationVar(&chatOpts.poll, "poll", ticketsync.DefaultInterval, "operator answer polling interval")
	f.DurationVar(&chatOpts.timeout, "timeout", 60*time.Second, "HTTP request timeout")
	f.StringVar(&chatOpts.logLevel, "log-level", "warn", "log level")
}

// chatPrinter сериализует вывод ответов и приглашения ввода.
type chatPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	prompt bool
}

func (p *chatPrinter) line(who, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s: %s\n", time.Now().Format("15:04"), who, text)
	if p.prompt {
		fmt.Fprint(p.out, "> ")
	}
}

func (p *chatPrinter) showPrompt() {
	if !p.prompt {
		return
	}
	p.mu.Lock()
	fmt.Fprint(p.out, "> ")
	p.mu.Unlock()
}

func runChat(cmd *cobra.Command, args []string) error {
	logger.Init(chatOpts.logLevel, "text", os.Stderr)

	client, err := apiclient.New(chatOpts.server, chatOpts.timeout)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &chatPrinter{out: cmd.OutOrStdout(), prompt: term.IsTerminal(int(os.Stdin.Fd()))}

	poller := ticketsync.NewPoller(client, func(ctx context.Context, t *model.Ticket) error {
		if err := client.AddToHistory(ctx, model.RoleOperator, *t.OperatorAnswer); err != nil {
			return err
		}
		out.line("Оператор", *t.OperatorAnswer)
		return nil
	})
	go poller.Run(ctx, chatOpts.poll)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	out.showPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case text, ok := <-lines:
			if !ok {
				waitPending(ctx, poller)
				return nil
			}
			if strings.TrimSpace(text) == "" {
				out.showPrompt()
				continue
			}
			reply, err := client.SendMessage(ctx, text)
			if err != nil {
				if errors.Is(err, errs.ErrEmptyMessage) {
					out.showPrompt()
					continue
				}
				out.line("Ошибка", err.Error())
				continue
			}
			if reply.TicketID != nil {
				poller.Track(*reply.TicketID)
			}
			out.line("Система", reply.Reply)
		}
	}
}

// waitPending после конца ввода ждёт ответы по открытым тикетам до Ctrl+C.
func waitPending(ctx context.Context, p *ticketsync.Poller) {
	for len(p.Pending()) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(chatOpts.poll):
		}
	}
}
