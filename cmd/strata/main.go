package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/pitabwire/strata"
	"github.com/pitabwire/strata/localization"
)

const minArgsCommand = 2

func main() {
	if len(os.Args) < minArgsCommand {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "state":
		exitOnErr(cmdState(os.Args[2:]))
	case "translate":
		exitOnErr(cmdTranslate(os.Args[2:]))
	case "catalog":
		exitOnErr(cmdCatalog(os.Args[2:]))
	case "announcements":
		exitOnErr(cmdAnnouncements(os.Args[2:]))
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stdout, "strata <command> [args]")
	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintln(os.Stdout, "Commands:")
	fmt.Fprintln(os.Stdout, "  state")
	fmt.Fprintln(os.Stdout, "  translate <message-id> [--lang ms|en]")
	fmt.Fprintln(os.Stdout, "  catalog [--lang ms|en]")
	fmt.Fprintln(os.Stdout, "  announcements")
}

func buildApp() (context.Context, *strata.App, error) {
	return strata.New(context.Background())
}

func cmdState(args []string) error {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Stop(ctx)

	snap := app.Session().Snapshot()
	fmt.Fprintf(os.Stdout, "service:  %s\n", app.Config().Name())
	fmt.Fprintf(os.Stdout, "language: %s\n", app.Preferences().Language())
	fmt.Fprintf(os.Stdout, "theme:    %s\n", app.Preferences().Theme())
	fmt.Fprintf(os.Stdout, "session:  %s\n", snap.Status)
	fmt.Fprintf(os.Stdout, "role:     %s\n", app.Roles().Current())
	return nil
}

func cmdTranslate(args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	lang := fs.String("lang", "", "locale to resolve against, defaults to the active one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("message id is required")
	}
	messageID := fs.Arg(0)

	ctx, app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Stop(ctx)

	if *lang != "" {
		parsed, ok := localization.ParseLanguage(*lang)
		if !ok {
			return fmt.Errorf("unsupported locale: %q", *lang)
		}
		fmt.Fprintln(os.Stdout, app.Localization().Resolve(ctx, parsed, messageID))
		return nil
	}

	fmt.Fprintln(os.Stdout, app.Translate(ctx, messageID))
	return nil
}

func cmdCatalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	lang := fs.String("lang", string(localization.DefaultLanguage), "locale to dump")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, ok := localization.ParseLanguage(*lang)
	if !ok {
		return fmt.Errorf("unsupported locale: %q", *lang)
	}

	ctx, app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Stop(ctx)

	catalog := app.Localization().Catalog(parsed)
	keys := make([]string, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", key, catalog[key])
	}
	return nil
}

func cmdAnnouncements(args []string) error {
	fs := flag.NewFlagSet("announcements", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Stop(ctx)

	items, err := app.Content().ListAnnouncements(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		marker := " "
		if item.IsNew {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %s  %s  %s\n",
			marker, item.CreatedAt.Format("2006-01-02"), item.ID, item.Title)
	}
	return nil
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
