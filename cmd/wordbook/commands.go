package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/conorfennell/wordbook/internal/clock"
	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/importer"
	"github.com/conorfennell/wordbook/internal/parser"
	"github.com/conorfennell/wordbook/internal/repository"
)

func cmdAdd(_ context.Context, a *app, args []string) error {
	fs := commandFlags("add")
	meanings := fs.StringArrayP("meaning", "m", nil, "meaning as 'pos: text' (repeatable)")
	forms := fs.StringArrayP("syn", "s", nil, "alternate written form (repeatable)")
	note := fs.String("note", "", "free-form note")
	truncate := fs.Bool("truncate", false, "replace existing meanings and forms")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := joinArgs(fs.Args())

	now := a.clock.Now()
	seed := repository.Seed{Text: text, Note: *note}
	for _, raw := range *meanings {
		m, ok := parser.ParseMeaning(raw)
		if !ok {
			continue
		}
		seed.Meanings = append(seed.Meanings, domain.NewMeaningSet(m.POS, domain.SourceManual, now, m.Text))
	}
	for _, f := range *forms {
		seed.SynForms = append(seed.SynForms, domain.SynForm{Form: f, Source: domain.SourceManual})
	}

	mode := repository.Append
	if *truncate {
		mode = repository.Truncate
	}
	if err := a.lib.AddWord(seed, mode); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %q in %s\n", text, a.lib.Active().Name())
	return nil
}

func cmdRemove(_ context.Context, a *app, args []string) error {
	fs := commandFlags("rm")
	id := fs.String("id", "", "remove by word id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var n int
	var err error
	if *id != "" {
		n, err = a.lib.RemoveByID(*id)
	} else {
		text := joinArgs(fs.Args())
		if text == "" {
			return domain.NewValidationError("word", "word or --id is required")
		}
		n, err = a.lib.RemoveByText(text)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed %d word(s)\n", n)
	return nil
}

func cmdList(_ context.Context, a *app, args []string) error {
	fs := commandFlags("list")
	sortBy := fs.String("sort", "", "priority, dictionary or created (default from settings)")
	rev := fs.Bool("rev", false, "reverse the order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	order := a.lib.Settings().Sort
	switch *sortBy {
	case "":
	case "priority":
		order.By = domain.SortByPriority
	case "dictionary":
		order.By = domain.SortByDictionary
	case "created":
		order.By = domain.SortByCreateTime
	default:
		return domain.NewValidationError("sort", fmt.Sprintf("unknown sort %q", *sortBy))
	}
	if fs.Changed("rev") {
		order.Reverse = *rev
	}

	now := a.clock.Now()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tMEANINGS\tSCORE\tADDED")
	for _, w := range a.lib.Active().Sorted(order, &a.cfg.Proficiency, now) {
		score := "-"
		if p, err := w.CalculateProficiency(&a.cfg.Proficiency, now); err == nil {
			score = strconv.FormatFloat(p.Score, 'f', 3, 64)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", w.Text, w.MeaningCount(), score, clock.Bucket(now, w.CreatedAt))
	}
	return tw.Flush()
}

func cmdShow(_ context.Context, a *app, args []string) error {
	text := joinArgs(args)
	words := a.lib.Active().WordsByText(text)
	if len(words) == 0 {
		return fmt.Errorf("word %q: %w", text, domain.ErrNotFound)
	}

	now := a.clock.Now()
	dirs := a.lib.Settings().ReviewContent.Directions()
	for _, w := range words {
		fmt.Fprintf(a.out, "%s  (id %s)\n", w.Text, w.ID)
		for si, set := range w.MeaningSets {
			fmt.Fprintf(a.out, "  %s\n", set.PartOfSpeech)
			for mi, m := range set.Meanings {
				fmt.Fprintf(a.out, "    [%d %d] %s  score %.3f", si, mi, m.Text, m.Score(&a.cfg.Proficiency, now))
				for _, dir := range dirs {
					if last := m.LastReview(dir); last.Reviewed {
						result := "wrong"
						if last.Correct {
							result = "right"
						}
						fmt.Fprintf(a.out, "  %s: %s %s", dir, result, clock.Bucket(now, last.When))
					}
				}
				fmt.Fprintln(a.out)
			}
		}
		for _, f := range w.SynForms {
			fmt.Fprintf(a.out, "  also: %s\n", f.Form)
		}
		if w.Note != "" {
			fmt.Fprintf(a.out, "  note: %s\n", w.Note)
		}
	}
	return nil
}

func cmdSearch(_ context.Context, a *app, args []string) error {
	for _, w := range a.lib.Active().Search(joinArgs(args)) {
		fmt.Fprintln(a.out, w.Text)
	}
	return nil
}

func cmdReview(_ context.Context, a *app, args []string) error {
	fs := commandFlags("review")
	dir := fs.String("dir", "word", "direction: word or meaning")
	correct := fs.Bool("correct", false, "the answer was right")
	wrong := fs.Bool("wrong", false, "the answer was wrong")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *correct == *wrong {
		return domain.NewValidationError("result", "exactly one of --correct or --wrong is required")
	}
	if fs.NArg() != 3 {
		return domain.NewValidationError("args", "expected ID SET MEANING")
	}
	setIdx, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return domain.NewValidationError("set", err.Error())
	}
	meaningIdx, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		return domain.NewValidationError("meaning", err.Error())
	}

	direction := domain.ByWord
	switch *dir {
	case "word":
	case "meaning":
		direction = domain.ByMeaning
	default:
		return domain.NewValidationError("dir", fmt.Sprintf("unknown direction %q", *dir))
	}

	if err := a.lib.Review(fs.Arg(0), setIdx, meaningIdx, direction, *correct); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "recorded")
	return nil
}

func cmdNext(_ context.Context, a *app, args []string) error {
	fs := commandFlags("next")
	n := fs.IntP("count", "n", 10, "number of items")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSET\tMEANING\tDIRECTION\tWORD\tSCORE")
	for _, item := range a.lib.ReviewQueue(*n) {
		prompt := item.Word.Text
		if item.Direction == domain.ByMeaning {
			prompt = item.Meaning.Text
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.3f\n",
			item.Word.ID, item.SetIndex, item.MeaningIndex, item.Direction, prompt, item.Score)
	}
	return tw.Flush()
}

func cmdBooks(_ context.Context, a *app, _ []string) error {
	active := a.lib.Active().Name()
	for _, name := range a.lib.Books() {
		marker := " "
		if name == active {
			marker = "*"
		}
		b, _ := a.lib.Book(name)
		fmt.Fprintf(a.out, "%s %s (%d)\n", marker, name, b.Len())
	}
	return nil
}

func cmdUse(_ context.Context, a *app, args []string) error {
	name := joinArgs(args)
	if err := a.lib.UseBook(name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "now using %s\n", name)
	return nil
}

func cmdPOS(_ context.Context, a *app, args []string) error {
	if tag := joinArgs(args); tag != "" {
		return a.lib.AddPartOfSpeech(tag)
	}
	for _, p := range a.lib.PartsOfSpeech() {
		fmt.Fprintln(a.out, p)
	}
	return nil
}

func cmdExport(_ context.Context, a *app, args []string) error {
	fs := commandFlags("export")
	out := fs.StringP("out", "o", "", "write to FILE instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	doc, err := a.lib.Export()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err := fmt.Fprintln(a.out, doc)
		return err
	}
	return os.WriteFile(*out, []byte(doc), 0o644)
}

func cmdImport(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return domain.NewValidationError("file", "expected one export file")
	}
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := a.lib.Import(string(doc)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "imported %d book(s)\n", len(a.lib.Books()))
	return nil
}

func cmdImportLists(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return domain.NewValidationError("source", "at least one directory or git URL is required")
	}
	im := importer.New(a.lib,
		importer.WithClock(a.clock),
		importer.WithReposDir(a.cfg.Import.ReposDir),
	)
	report, err := im.Run(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d file(s), %d entries: %d added, %d merged\n",
		report.Files, report.Entries, report.Added, report.Merged)
	for _, e := range report.Errors {
		fmt.Fprintf(a.out, "- %s\n", e)
	}
	return nil
}

func cmdReset(_ context.Context, a *app, args []string) error {
	fs := commandFlags("reset")
	yes := fs.Bool("yes", false, "confirm deleting every word book")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to reset without --yes")
	}
	if err := a.lib.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "library reset")
	return nil
}
