package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kurskollen/kurskollen-api/internal/loader"
	"github.com/kurskollen/kurskollen-api/internal/repository"
	"github.com/kurskollen/kurskollen-api/pkg/config"
	"github.com/kurskollen/kurskollen-api/pkg/database"
	"github.com/kurskollen/kurskollen-api/pkg/logger"
)

func main() {
	var (
		programDir = flag.String("programs", "", "directory of program curriculum files (defaults to LOADER_PROGRAM_DIR)")
		reviewDir  = flag.String("reviews", "", "directory of review snapshot files (defaults to LOADER_REVIEW_DIR)")
		tagFile    = flag.String("tags", "", "tag reference file, loaded before reviews")
		skipReview = flag.Bool("skip-reviews", false, "load catalog only")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *programDir == "" {
		*programDir = cfg.Loader.ProgramDir
	}
	if *reviewDir == "" {
		*reviewDir = cfg.Loader.ReviewDir
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	ld := loader.New(
		repository.NewCatalogRepository(db),
		repository.NewUserRepository(db),
		repository.NewCourseRepository(db),
		repository.NewTagRepository(db),
		repository.NewReviewRepository(db),
		logr,
	)

	ctx := context.Background()
	report := &loader.Report{}

	if err := ld.LoadProgramDir(ctx, *programDir, report); err != nil {
		logr.Sugar().Fatalw("program load failed", "dir", *programDir, "error", err)
	}

	if *tagFile != "" {
		if err := ld.LoadTagFile(ctx, *tagFile, report); err != nil {
			logr.Sugar().Fatalw("tag load failed", "file", *tagFile, "error", err)
		}
	}

	if !*skipReview {
		if err := ld.LoadReviewDir(ctx, *reviewDir, report); err != nil {
			logr.Sugar().Fatalw("review load failed", "dir", *reviewDir, "error", err)
		}
	}

	fmt.Printf("programs loaded:  %d files\n", report.ProgramFiles)
	fmt.Printf("courses loaded:   %d\n", report.CoursesLoaded)
	fmt.Printf("tags loaded:      %d\n", report.TagsLoaded)
	fmt.Printf("reviews imported: %d (%d skipped)\n", report.ReviewsImported, report.ReviewsSkipped)

	if len(report.Failures) > 0 {
		fmt.Printf("\n%d records failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			if f.Index < 0 {
				fmt.Printf("  %s: %s\n", f.File, f.Reason)
				continue
			}
			fmt.Printf("  %s[%d]: %s\n", f.File, f.Index, f.Reason)
		}
		os.Exit(1)
	}
}
