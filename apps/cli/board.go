package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/trezcool/eduverse/core/dashboard"
	"github.com/trezcool/eduverse/core/notice"
	"github.com/trezcool/eduverse/core/settings"
)

func (cli *commandLine) noticesCmd(_ *pflag.FlagSet) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		notices, err := cli.Notices.List(ctx, sess)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(notices))
		for _, n := range notices {
			rows = append(rows, []string{n.Date, n.Priority, n.Category, n.Audience, n.Title})
		}
		return cli.render(notices, []string{"DATE", "PRIORITY", "CATEGORY", "AUDIENCE", "TITLE"}, rows)
	}
}

func (cli *commandLine) noticeAddCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var nn notice.NewNotice
	fs.StringVar(&nn.Title, "title", "", "title")
	fs.StringVar(&nn.Content, "content", "", "content")
	fs.StringVar(&nn.Category, "category", "General", "category")
	fs.StringVar(&nn.Priority, "priority", notice.PriorityMedium, "Low, Medium or High")
	fs.StringVar(&nn.Audience, "audience", notice.AudienceEveryone, "Everyone, Teachers or Students")
	fs.StringVar(&nn.Date, "date", "", "date as YYYY-MM-DD (default today)")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		n, err := cli.Notices.Create(ctx, sess, nn)
		if err != nil {
			return err
		}
		return cli.render(n, nil, keyValues("id", n.ID, "title", n.Title, "date", n.Date, "audience", n.Audience))
	}
}

func (cli *commandLine) settingsCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var u settings.Update
	siteName := fs.String("site-name", "", "site name")
	theme := fs.String("theme", "", "default theme: blue, purple, gold, emerald or rose")
	year := fs.String("academic-year", "", "academic year, eg: 2024-2025")
	semester := fs.String("semester", "", "Fall, Spring or Summer")
	registration := fs.Bool("allow-registration", true, "allow new accounts")
	maintenance := fs.Bool("maintenance", false, "maintenance mode")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}

		if fs.Changed("site-name") {
			u.SiteName = siteName
		}
		if fs.Changed("theme") {
			u.DefaultTheme = theme
		}
		if fs.Changed("academic-year") {
			u.AcademicYear = year
		}
		if fs.Changed("semester") {
			u.Semester = semester
		}
		if fs.Changed("allow-registration") {
			u.AllowRegistration = registration
		}
		if fs.Changed("maintenance") {
			u.MaintenanceMode = maintenance
		}

		var s settings.Settings
		if u == (settings.Update{}) {
			s, err = cli.Settings.Get(ctx)
		} else {
			s, err = cli.Settings.Update(ctx, sess, u)
		}
		if err != nil {
			return err
		}
		return cli.render(s, nil, keyValues(
			"site", s.SiteName,
			"description", s.SiteDescription,
			"theme", s.DefaultTheme,
			"academic year", s.AcademicYear,
			"semester", s.Semester,
			"registration", strconv.FormatBool(s.AllowRegistration),
			"maintenance", strconv.FormatBool(s.MaintenanceMode),
		))
	}
}

func (cli *commandLine) dashboardCmd(_ *pflag.FlagSet) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		d, err := cli.Dashboard.For(ctx, sess)
		if err != nil {
			return err
		}

		var rows [][]string
		switch d := d.(type) {
		case dashboard.Student:
			next := "none"
			if len(d.UpcomingExams) > 0 {
				e := d.UpcomingExams[0]
				next = fmt.Sprintf("%s (%s)", e.Title, e.ScheduledDate.Format("Jan 2"))
			}
			rows = keyValues(
				"classes", strconv.Itoa(len(d.Classes)),
				"upcoming exams", strconv.Itoa(len(d.UpcomingExams)),
				"next exam", next,
				"attendance", fmt.Sprintf("%.1f%%", d.AttendanceRate),
				"pending fees", fmt.Sprintf("%d (%s due)", d.PendingFees, money(d.AmountDue)),
				"assignments due", strconv.Itoa(d.PendingAssignments),
				"notices", strconv.Itoa(d.Notices),
			)
		case dashboard.Teacher:
			rows = keyValues(
				"classes", strconv.Itoa(len(d.Classes)),
				"students", strconv.Itoa(d.Students),
				"marked today", strconv.Itoa(d.MarkedToday),
				"exams", strconv.Itoa(d.Exams),
				"notices", strconv.Itoa(d.Notices),
			)
		case dashboard.Accountant:
			rows = keyValues(
				"fees", strconv.Itoa(d.Fees),
				"revenue", money(d.Revenue),
				"pending", money(d.Pending),
				"paid / pending / partial", fmt.Sprintf("%d / %d / %d", d.PaidCount, d.PendingCount, d.PartialCount),
			)
		case dashboard.Admin:
			rows = keyValues(
				"users", fmt.Sprintf("%d (%d active)", d.Total, d.Active),
				"admins", strconv.Itoa(d.Users["admin"]),
				"teachers", strconv.Itoa(d.Users["teacher"]),
				"students", strconv.Itoa(d.Users["student"]),
				"accountants", strconv.Itoa(d.Users["accountant"]),
				"classes", strconv.Itoa(d.Classes),
				"exams", strconv.Itoa(d.Exams),
				"notices", strconv.Itoa(d.Notices),
			)
		}
		return cli.render(d, nil, rows)
	}
}
