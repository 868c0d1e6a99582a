package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/h2operator/h2operator-backend/internal/db"
	"github.com/h2operator/h2operator-backend/internal/facility"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		pwsid = flag.String("pwsid", "", "facility PWSID (required)")
		dsn   = flag.String("db", os.Getenv("DATABASE_URL"), "dataset path or postgres URL")
		days  = flag.Int("days", 365, "calendar window in days, ending today")
	)
	flag.Parse()

	if *pwsid == "" || *dsn == "" {
		flag.Usage()
		os.Exit(2)
	}

	d, err := db.Open(*dsn, "silent")
	if err != nil {
		log.Fatal(err)
	}
	store := facility.NewStore(d)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ws, err := store.FindByPWSID(ctx, *pwsid)
	if errors.Is(err, facility.ErrNotFound) {
		log.Fatalf("no active facility %s", *pwsid)
	}
	if err != nil {
		log.Fatal(err)
	}

	violations, err := store.Violations(ctx, ws.PWSID, compliance.DateRange{})
	if err != nil {
		log.Fatal(err)
	}
	visit, err := store.LatestSiteVisit(ctx, ws.PWSID)
	if err != nil {
		log.Fatal(err)
	}

	today := compliance.DateOf(time.Now())

	fmt.Printf("%s  %s (%s, %s)\n", ws.PWSID, ws.Name, ws.City, ws.State)
	if ws.Population != nil {
		fmt.Printf("  population served: %d\n", *ws.Population)
	}
	fmt.Printf("  violations on record: %d (outstanding: %v)\n", len(violations), compliance.HasOutstanding(violations))
	fmt.Printf("  trend: %s\n", compliance.ComputeTrend(violations, today.Year))

	action := compliance.SelectUrgentAction(violations, visit, today)
	if action.Type == compliance.ActionNone {
		fmt.Println("  urgent action: none")
	} else {
		fmt.Printf("  urgent action: [%s/%s] %s\n", action.Type, action.Priority, action.Title)
		if action.DaysRemaining != nil {
			fmt.Printf("    days remaining: %d\n", *action.DaysRemaining)
		}
	}

	window := compliance.DateRange{From: today.AddDays(-*days), To: today}
	var inWindow []compliance.Violation
	for _, v := range violations {
		if window.Contains(v.BeginDate) {
			inWindow = append(inWindow, v)
		}
	}
	calendar := compliance.BuildCalendar(inWindow)
	fmt.Printf("  calendar %s..%s: %d violations across %d days\n",
		window.From, window.To, compliance.CalendarTotal(calendar), len(calendar))
}
