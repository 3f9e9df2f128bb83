package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/user"
)

func (cli *commandLine) seedCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	force := fs.Bool("force", false, "wipe the store and reseed it, even if it is up to date")
	return func(ctx context.Context) error {
		if *force {
			if err := cli.Seeder.Force(ctx); err != nil {
				return err
			}
			// the wipe dropped any saved session
			cli.Auth.Logout(ctx)
		}
		return cli.render(
			map[string]interface{}{"version": cli.Seeder.Version(), "reseeded": *force},
			nil,
			keyValues("version", cli.Seeder.Version(), "reseeded", fmt.Sprint(*force)),
		)
	}
}

func (cli *commandLine) loginCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	email := fs.String("email", "", "email of the account; the password is prompted next")
	return func(ctx context.Context) error {
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			fs.Usage()
			return errHelp
		}
		sess, err := cli.Auth.Login(ctx, *email, pwd)
		if err != nil {
			return err
		}
		return cli.renderSession(sess)
	}
}

func (cli *commandLine) logoutCmd(_ *pflag.FlagSet) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cli.Auth.Logout(ctx)
		fmt.Fprintln(cli.out, "logged out")
		return nil
	}
}

func (cli *commandLine) whoamiCmd(_ *pflag.FlagSet) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}
		return cli.renderSession(sess)
	}
}

func (cli *commandLine) renderSession(sess user.Session) error {
	return cli.render(sess, nil, keyValues(
		"id", sess.ID,
		"name", sess.Name,
		"email", sess.Email,
		"role", sess.Role,
		"class", sess.ClassID,
	))
}

func (cli *commandLine) registerCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	var nu user.NewUser
	fs.StringVar(&nu.Name, "name", "", "full name")
	fs.StringVar(&nu.Email, "email", "", "email")
	fs.StringVar(&nu.Role, "role", user.RoleStudent, "one of: "+strings.Join(user.AllRoles, ", "))
	fs.StringVar(&nu.ClassID, "class", "", "class ID (students)")
	fs.StringVar(&nu.Grade, "grade", "", "grade (students)")
	fs.StringVar(&nu.ParentEmail, "parent-email", "", "parent email (students)")
	fs.StringSliceVar(&nu.Subjects, "subjects", nil, "comma separated subjects (teachers)")
	fs.StringSliceVar(&nu.Classes, "classes", nil, "comma separated class IDs (teachers)")
	fs.StringVar(&nu.Phone, "phone", "", "phone number")
	return func(ctx context.Context) error {
		if nu.Name == "" || nu.Email == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Choose a password:")
		if err != nil {
			return err
		}
		nu.Password = pwd
		sess, err := cli.Auth.Register(ctx, nu)
		if err != nil {
			return err
		}
		return cli.renderSession(sess)
	}
}

func (cli *commandLine) profileCmd(fs *pflag.FlagSet) func(ctx context.Context) error {
	names := []string{"name", "email", "avatar", "phone", "address", "bio", "education", "experience"}
	vals := make(map[string]*string, len(names))
	for _, name := range names {
		vals[name] = fs.String(name, "", "new "+name)
	}
	changePwd := fs.Bool("password", false, "change the password; it is prompted")

	return func(ctx context.Context) error {
		sess, err := cli.session()
		if err != nil {
			return err
		}

		var uu user.UpdateUser
		fields := map[string]**string{
			"name": &uu.Name, "email": &uu.Email, "avatar": &uu.Avatar, "phone": &uu.Phone,
			"address": &uu.Address, "bio": &uu.Bio, "education": &uu.Education, "experience": &uu.Experience,
		}
		for name, dst := range fields {
			if fs.Changed(name) {
				*dst = vals[name]
			}
		}
		if *changePwd {
			pwd, err := cli.readPassword("New password:")
			if err != nil {
				return err
			}
			uu.Password = &pwd
		}

		if !uu.IsEmpty() {
			if sess, err = cli.Auth.UpdateUser(ctx, uu); err != nil {
				return err
			}
		}
		usr, err := cli.Users.GetByID(ctx, sess.ID)
		if err != nil {
			return err
		}
		return cli.renderUser(usr)
	}
}

func (cli *commandLine) renderUser(usr user.User) error {
	rows := keyValues(
		"id", usr.ID,
		"name", usr.Name,
		"email", usr.Email,
		"role", usr.Role,
		"status", usr.Status,
		"joined", core.FormatDate(usr.CreatedAt),
		"phone", usr.Phone,
		"address", usr.Address,
		"bio", usr.Bio,
		"education", usr.Education,
		"experience", usr.Experience,
	)
	if usr.StudentProfile != nil {
		rows = append(rows, keyValues("class", usr.StudentProfile.ClassID, "grade", usr.Grade, "parent", usr.ParentEmail)...)
	}
	if usr.TeacherProfile != nil {
		rows = append(rows, keyValues("subjects", strings.Join(usr.Subjects, ", "), "classes", strings.Join(usr.TeacherProfile.Classes, ", "))...)
	}
	// never print the password hash
	usr.PasswordHash = ""
	return cli.render(usr, nil, rows)
}
