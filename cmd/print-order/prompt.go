package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/print-order/internal/domain/catalog"
	"github.com/xenking/print-order/internal/domain/order"
	"github.com/xenking/print-order/internal/wizard"
)

// ordersAPI is the part of the orders API client used by the prompt.
type ordersAPI interface {
	order.Creator
	order.Lister
}

const help = `Commandes:
  <n>        choisir l'option n (étapes 1 à 3)
  n, next    étape suivante
  b, back    étape précédente
  a, address saisir l'adresse de livraison
  qty <n>    nombre d'exemplaires
  pay        commander et obtenir le lien de paiement (dernière étape)
  orders     historique des commandes
  quit       quitter`

// prompt drives one wizard from line-oriented input.
type prompt struct {
	w      *wizard.Wizard
	orders ordersAPI
	lines  <-chan string
	out    io.Writer
}

// run reads commands from in until the order is placed, the user quits or
// input ends. The checkout URL is printed on success.
func run(ctx context.Context, in io.Reader, out io.Writer, orders ordersAPI) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	p := &prompt{
		w:      wizard.New(),
		orders: orders,
		lines:  lines,
		out:    out,
	}
	return p.loop(ctx)
}

func (p *prompt) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// readLine returns the next input line; io.EOF when input ended.
func (p *prompt) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (p *prompt) loop(ctx context.Context) error {
	p.printf("%s\n", help)
	for {
		p.render()
		p.printf("> ")

		line, err := p.readLine(ctx)
		if errors.Is(err, io.EOF) {
			p.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}

		done, err := p.exec(ctx, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// exec runs one command. It reports done when the session is over.
func (p *prompt) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "n", "next":
		if err := p.w.Next(); err != nil {
			p.printf("Complétez cette étape pour continuer.\n")
		}
	case "b", "back":
		if err := p.w.Back(); err != nil {
			p.printf("Vous êtes à la première étape.\n")
		}
	case "qty":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || p.w.SetQuantity(n) != nil {
			p.printf("Quantité invalide: %q\n", arg)
		}
	case "a", "address":
		return false, p.readAddress(ctx)
	case "pay":
		return p.pay(ctx), nil
	case "orders":
		p.history(ctx)
	case "help", "?":
		p.printf("%s\n", help)
	case "quit", "exit", "q":
		return true, nil
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil || !p.choose(n) {
			p.printf("Commande inconnue: %q (help pour l'aide)\n", line)
		}
	}
	return false, nil
}

// choose selects option n (1-based) of the current option step.
func (p *prompt) choose(n int) bool {
	var err error
	switch p.w.Step() {
	case wizard.StepCover:
		var id catalog.Cover
		if id, err = nth(catalog.Covers(), n); err == nil {
			err = p.w.SelectCover(id)
		}
	case wizard.StepPaper:
		var id catalog.Paper
		if id, err = nth(catalog.Papers(), n); err == nil {
			err = p.w.SelectPaper(id)
		}
	case wizard.StepFinish:
		var id catalog.Finish
		if id, err = nth(catalog.Finishes(), n); err == nil {
			err = p.w.SelectFinish(id)
		}
	default:
		return false
	}
	return err == nil
}

func nth[T ~string](opts []catalog.Option[T], n int) (T, error) {
	if n < 1 || n > len(opts) {
		var zero T
		return zero, errors.Errorf("no option %d", n)
	}
	return opts[n-1].ID, nil
}

// readAddress asks for every address field; an empty answer keeps the
// current value.
func (p *prompt) readAddress(ctx context.Context) error {
	addr := p.w.State().Shipping
	fields := []struct {
		label string
		value *string
	}{
		{"Nom complet", &addr.Name},
		{"Adresse", &addr.Line1},
		{"Complément", &addr.Line2},
		{"Ville", &addr.City},
		{"Code postal", &addr.PostalCode},
	}
	for _, f := range fields {
		p.printf("%s [%s]: ", f.label, *f.value)
		line, err := p.readLine(ctx)
		if err != nil {
			return ignoreEOF(err)
		}
		if line != "" {
			*f.value = line
		}
	}

	p.printf("Pays (%s) [%s]: ", countryCodes(), addr.Country)
	line, err := p.readLine(ctx)
	if err != nil {
		return ignoreEOF(err)
	}
	if line != "" {
		addr.Country = catalog.Country(strings.ToUpper(line))
	}
	if err := p.w.SetShipping(addr); err != nil {
		p.printf("Pays non desservi: %s\n", addr.Country)
	}
	return nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func countryCodes() string {
	var codes []string
	for _, c := range catalog.Countries() {
		codes = append(codes, string(c.Code))
	}
	return strings.Join(codes, ", ")
}

// pay submits the order. It reports whether a checkout URL was obtained.
func (p *prompt) pay(ctx context.Context) bool {
	if err := p.w.CheckSubmit(); err != nil {
		p.printf("Impossible de commander: %s\n", err)
		return false
	}
	p.printf("Commande en cours...\n")
	checkout, err := p.w.Submit(ctx, p.orders)
	if err != nil {
		zctx.From(ctx).Debug("Submit failed", zap.Error(err))
		msg := p.w.Err()
		if msg == "" {
			msg = err.Error()
		}
		p.printf("Erreur: %s\n", msg)
		return false
	}
	p.printf("Commande %s créée. Finalisez le paiement:\n%s\n", checkout.OrderID, checkout.URL)
	return true
}

func (p *prompt) history(ctx context.Context) {
	orders, err := p.orders.ListOrders(ctx)
	if err != nil {
		zctx.From(ctx).Debug("List orders failed", zap.Error(err))
		p.printf("Erreur: %s\n", order.UserMessage(err))
		return
	}
	if len(orders) == 0 {
		p.printf("Aucune commande.\n")
		return
	}
	for _, o := range orders {
		p.printf("  %s  %-22s  %3d ex.  %s\n", o.ID, o.Status.Label(), o.Quantity, order.FormatEUR(o.Total()))
		if o.TrackingURL != "" {
			p.printf("      suivi: %s\n", o.TrackingURL)
		}
	}
}

func (p *prompt) render() {
	st := p.w.State()
	p.printf("\nÉtape %d/%d · %s\n", st.Step, wizard.TotalSteps, st.Step.Label())

	switch st.Step {
	case wizard.StepCover:
		printOptions(p.out, catalog.Covers(), st.Config.CoverType)
	case wizard.StepPaper:
		printOptions(p.out, catalog.Papers(), st.Config.PaperType)
	case wizard.StepFinish:
		printOptions(p.out, catalog.Finishes(), st.Config.FinishType)
	case wizard.StepShipping:
		a := st.Shipping
		if a.Name == "" {
			p.printf("  (aucune adresse, tapez address)\n")
			break
		}
		p.printf("  %s\n  %s\n", a.Name, a.Line1)
		if a.Line2 != "" {
			p.printf("  %s\n", a.Line2)
		}
		p.printf("  %s %s, %s\n", a.PostalCode, a.City, a.Country.Name())
	case wizard.StepReview:
		for _, row := range st.Summary() {
			p.printf("  %-10s %s\n", row.Label+":", strings.ReplaceAll(row.Value, "\n", ", "))
		}
		if st.Error != "" {
			p.printf("  Erreur: %s\n", st.Error)
		}
	}
	p.printf("Quantité: %d · Total: %s\n", st.Config.Quantity, order.FormatEUR(st.Total()))
}

// printOptions lists opts numbered from 1, marking the selected one.
func printOptions[T ~string](out io.Writer, opts []catalog.Option[T], selected T) {
	for i, o := range opts {
		mark := " "
		if o.ID == selected {
			mark = "*"
		}
		price := ""
		if o.Priced {
			price = "  +" + order.FormatEUR(o.Price)
		}
		_, _ = fmt.Fprintf(out, " %s%d) %s%s  %s\n", mark, i+1, o.Name, price, o.Description)
	}
}
