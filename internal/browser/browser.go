// Package browser is the operator surface of the catalog: a product grid with
// per-card thumbnails, the sale confirmation dialog and the notification feed,
// driven by line commands.
package browser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"pos-catalog-browser/internal/catalog"
	"pos-catalog-browser/internal/domain"
	"pos-catalog-browser/internal/imageresolver"
	"pos-catalog-browser/internal/notify"
	"pos-catalog-browser/internal/sale"

	"go.uber.org/zap"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("browser: quit")

const helpText = `Commands:
  list              show the catalog
  reload            fetch the catalog again
  sell <id>         open the sale dialog for a product
  pay cash|card     choose the payment method
  confirm           register the sale
  cancel            close the dialog
  notes             show active notifications
  dismiss <n>       dismiss notification n
  help              show this help
  quit              leave
`

// Browser wires the catalog, the sale workflow and the notification center to a text surface.
type Browser struct {
	catalog  *catalog.Catalog
	workflow *sale.Workflow
	center   *notify.Center
	grid     *Grid
	prober   *imageresolver.Prober
	money    *Money
	logger   *zap.Logger

	outMu sync.Mutex
	out   io.Writer

	synced  uint64
	pending sync.WaitGroup
}

// New creates a Browser writing to out.
func New(c *catalog.Catalog, wf *sale.Workflow, center *notify.Center, resolver *imageresolver.Resolver,
	prober *imageresolver.Prober, money *Money, out io.Writer, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{
		catalog:  c,
		workflow: wf,
		center:   center,
		grid:     NewGrid(resolver),
		prober:   prober,
		money:    money,
		logger:   logger,
		out:      out,
	}
}

// Run performs the initial catalog load and executes commands from in until EOF, quit or ctx is done.
// Notifications are printed as they are published.
func (b *Browser) Run(ctx context.Context, in io.Reader) error {
	notes, unsubscribe := b.center.Subscribe()
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		for n := range notes {
			b.printf("[%s] %s\n", n.Level, n.Message)
		}
	}()
	defer func() {
		b.Wait()
		unsubscribe()
		<-feedDone
	}()

	b.catalog.Reload(ctx)
	b.renderGrid(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		b.printf("> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			b.center.Prune(time.Now())
			if err := b.Execute(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				b.printf("error: %v\n", err)
			}
		}
	}
}

// Execute runs one command line.
func (b *Browser) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "list", "ls":
		b.renderGrid(ctx)
	case "reload":
		b.catalog.Reload(ctx)
		b.renderGrid(ctx)
	case "sell":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if b.workflow.Submitting(id) {
			return fmt.Errorf("a sale for product %d is already being registered", id)
		}
		if !b.workflow.RequestSale(id) {
			return fmt.Errorf("product %d is not in the catalog", id)
		}
		b.renderDialog(ctx)
	case "pay":
		if len(args) != 1 {
			return errors.New("usage: pay cash|card")
		}
		pt, err := domain.ParsePaymentType(args[0])
		if err != nil {
			return err
		}
		if err := b.workflow.SelectPayment(pt); err != nil {
			return err
		}
		b.renderDialog(ctx)
	case "cancel":
		return b.workflow.Cancel()
	case "confirm":
		return b.confirm(ctx)
	case "notes":
		b.renderNotes()
	case "dismiss":
		return b.dismiss(args)
	case "help", "?":
		b.printf("%s", helpText)
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

// Wait blocks until every confirmed submission has resolved.
func (b *Browser) Wait() {
	b.pending.Wait()
}

func (b *Browser) confirm(ctx context.Context) error {
	d, ok := b.workflow.Dialog()
	if !ok {
		return sale.ErrNotConfirming
	}
	if !d.ActionsEnabled {
		return fmt.Errorf("a sale for product %d is already being registered", d.Product.ID)
	}
	sub, err := b.workflow.Begin()
	if err != nil {
		return err
	}
	b.printf("registering sale of %s (%s)...\n", sub.Product().Name, sub.Payment())

	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		if res := sub.Run(ctx); res.ReloadErr != nil {
			b.logger.Warn("catalog refresh after sale failed", zap.Error(res.ReloadErr))
		}
	}()
	return nil
}

func (b *Browser) dismiss(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dismiss <n>")
	}
	n, err := strconv.Atoi(args[0])
	active := b.center.Active()
	if err != nil || n < 1 || n > len(active) {
		return fmt.Errorf("no notification %q", args[0])
	}
	b.center.Dismiss(active[n-1].ID)
	return nil
}

func (b *Browser) syncGrid() {
	if v := b.catalog.Version(); v != b.synced {
		b.grid.Sync(b.catalog.Products())
		b.synced = v
	}
}

func (b *Browser) renderGrid(ctx context.Context) {
	if err := b.catalog.Err(); err != nil {
		b.printf("Catalog unavailable: %v\nType reload to try again.\n", err)
		return
	}
	b.syncGrid()

	cards := b.grid.Cards()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Catalog (%d products)\n", len(cards))
	tw := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)
	for _, c := range cards {
		image := "[" + c.Placeholder() + "]"
		if loc, ok := c.Resolve(ctx, b.prober); ok {
			image = loc
		}
		stock := fmt.Sprintf("%d in stock", c.Product.AvailableQty)
		if !c.Product.InStock() {
			stock = "out of stock"
		}
		action := "sell"
		if b.workflow.Submitting(c.Product.ID) {
			action = "registering..."
		}
		fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\t%s\t%s\t[%s]\n",
			c.Product.ID, c.Product.Name, c.Product.Code, b.money.Format(c.Product.Price), stock, image, action)
	}
	tw.Flush()
	b.printf("%s", sb.String())
}

func (b *Browser) renderDialog(ctx context.Context) {
	// The preview walks the dialog's own cursor, independent of the grid card.
	for {
		d, ok := b.workflow.Dialog()
		if !ok || !d.HasPreview {
			break
		}
		if err := b.prober.Probe(ctx, d.Preview); err == nil || ctx.Err() != nil {
			break
		}
		b.workflow.PreviewFailed()
	}

	d, ok := b.workflow.Dialog()
	if !ok {
		return
	}
	preview := "[" + d.Placeholder + "]"
	if d.HasPreview {
		preview = d.Preview
	}
	b.printf("Sell %s (%s) for %s\n  image:   %s\n  payment: %s\n  confirm | cancel | pay cash|card\n",
		d.Product.Name, d.Product.Code, b.money.Format(d.Product.Price), preview, d.Payment)
}

func (b *Browser) renderNotes() {
	active := b.center.Active()
	if len(active) == 0 {
		b.printf("No notifications.\n")
		return
	}
	for i, n := range active {
		b.printf("  %d. [%s] %s\n", i+1, n.Level, n.Message)
	}
}

func (b *Browser) printf(format string, args ...any) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("usage: sell <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}
