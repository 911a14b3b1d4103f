// Package bwtailwind runs the Tailwind CSS standalone CLI for a project.
//
// # Overview
//
// A [Builder] is created once from a [Config] and a [BinaryResolver]. It turns
// a small set of options into the exact argument vector the Tailwind binary
// expects and starts the process:
//
//	b, err := bwtailwind.New(bwtailwind.Config{
//	    ProjectDir: "/srv/app",
//	    InputCSS:   []string{"assets/styles/app.css"},
//	    VarDir:     "var/tailwind",
//	}, resolver, bwtailwind.WithLogger(log), bwtailwind.WithVerbose(true))
//
//	run, err := b.Build(ctx, bwtailwind.BuildOptions{Minify: true})
//	if err != nil {
//	    return err
//	}
//	return run.Process.Wait()
//
// # Argument vector
//
// A build invocation always has the shape:
//
//	-c <config> -i <input> -o <var-dir>/<input-name>.built.css [--watch [--poll]] [--minify] [--postcss <file>]
//
// The init invocation is just "init".
//
// # Binary versions
//
// The binary is resolved on every call, so a pinned version or explicit path
// that changes between calls is respected. Tailwind v4 dropped support for a
// PostCSS config file; requesting one against a v4 binary fails with
// [ErrIncompatibleOption] before any process is started. Use [IsV4OrLater] or
// [Builder.IsBinaryV4OrLater] to branch on the version elsewhere.
//
// # Watch mode
//
// A watch build runs without a timeout and keeps an open pipe on the
// process's standard input. The Tailwind CLI exits once its stdin reaches EOF,
// so the process lives until [Run.Stop] closes the pipe.
package bwtailwind
