package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/attendance"
	"github.com/trezcool/eduverse/core/exam"
	"github.com/trezcool/eduverse/core/user"
)

func (cli *commandLine) usersCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var filter user.QueryFilter
	fs.StringVar(&filter.Search, "search", "", "match on name or email")
	fs.StringSliceVar(&filter.Roles, "role", nil, "comma separated roles")
	fs.StringVar(&filter.ClassID, "class", "", "class ID of students")
	fs.StringVar(&filter.Status, "status", "", "active or inactive")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		if !sess.HasRole(user.RoleAdmin) {
			return core.ErrForbidden
		}
		users, err := cli.Users.Filter(ctx, filter)
		if err != nil {
			return err
		}

		sessions := make([]user.Session, 0, len(users))
		rows := make([][]string, 0, len(users))
		for _, usr := range users {
			sessions = append(sessions, usr.Session())
			rows = append(rows, []string{usr.ID, usr.Name, usr.Email, usr.Role, usr.Status, core.FormatDate(usr.CreatedAt)})
		}
		return cli.render(sessions, []string{"ID", "NAME", "EMAIL", "ROLE", "STATUS", "JOINED"}, rows)
	}
}

func (cli *commandLine) classesCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	search := fs.String("search", "", "match on name, subject or description")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		var teacherID string
		if sess.HasRole(user.RoleTeacher) {
			teacherID = sess.ID
		}
		classes, err := cli.Classes.ForTeacher(ctx, teacherID, *search)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(classes))
		for _, cls := range classes {
			rows = append(rows, []string{
				cls.ID, cls.Name, cls.Subject, cls.Schedule, cls.Room,
				fmt.Sprintf("%d/%d", cls.StudentCount, cls.MaxStudents),
			})
		}
		return cli.render(classes, []string{"ID", "NAME", "SUBJECT", "SCHEDULE", "ROOM", "STUDENTS"}, rows)
	}
}

func (cli *commandLine) examsCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var filter exam.QueryFilter
	fs.StringVar(&filter.Status, "status", "all", "scheduled, ongoing, completed or all")
	fs.StringVar(&filter.Search, "search", "", "match on title or subject")
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		exams, err := cli.Exams.Filter(ctx, filter)
		if err != nil {
			return err
		}
		if sess.HasRole(user.RoleStudent) {
			kept := exams[:0]
			for _, e := range exams {
				if e.ClassID == sess.ClassID {
					kept = append(kept, e)
				}
			}
			exams = kept
		}

		rows := make([][]string, 0, len(exams))
		for _, e := range exams {
			rows = append(rows, []string{
				e.ID, e.Title, e.ClassID, core.FormatDate(e.ScheduledDate),
				strconv.Itoa(e.Duration) + " min", strconv.Itoa(len(e.Questions)), strconv.Itoa(e.TotalMarks), e.Status,
			})
		}
		return cli.render(exams, []string{"ID", "TITLE", "CLASS", "DATE", "DURATION", "QUESTIONS", "MARKS", "STATUS"}, rows)
	}
}

func (cli *commandLine) rosterCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	classID := fs.String("class", "", "class ID")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	return func(ctx context.Context) error {
		if *classID == "" {
			fs.Usage()
			return errHelp
		}
		sess, err := cli.session()
		if err != nil {
			return err
		}
		if *date == "" {
			*date = attendance.Today()
		}
		entries, err := cli.Attendance.Roster(ctx, sess, *classID, *date)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			saved := "no"
			if e.Saved {
				saved = "yes"
			}
			rows = append(rows, []string{e.StudentID, e.StudentName, e.Status, saved})
		}
		return cli.render(entries, []string{"STUDENT", "NAME", "STATUS", "SAVED"}, rows)
	}
}

func (cli *commandLine) markCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	classID := fs.String("class", "", "class ID")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	absent := fs.StringSlice("absent", nil, "comma separated IDs of absent students; the others are present")
	return func(ctx context.Context) error {
		if *classID == "" {
			fs.Usage()
			return errHelp
		}
		sess, err := cli.session()
		if err != nil {
			return err
		}
		if *date == "" {
			*date = attendance.Today()
		}
		statuses := make(map[string]string, len(*absent))
		for _, id := range *absent {
			statuses[id] = attendance.StatusAbsent
		}

		records, err := cli.Attendance.Mark(ctx, sess, attendance.Mark{ClassID: *classID, Date: *date, Statuses: statuses})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{r.ID, r.StudentName, r.Date, r.Status})
		}
		return cli.render(records, []string{"ID", "STUDENT", "DATE", "STATUS"}, rows)
	}
}
