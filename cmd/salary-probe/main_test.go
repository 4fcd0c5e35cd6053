package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInspectCommand(t *testing.T) {
	Convey("Given the probe command tree", t, func() {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)

		Convey("When inspecting the shipped artifact", func() {
			logFile := filepath.Join(t.TempDir(), "probe.log")
			root.SetArgs([]string{"inspect", "--log", logFile, "../../artifacts/salary_model.yaml"})
			err := root.ExecuteContext(context.Background())

			Convey("Then the summary is printed and the log file created", func() {
				So(err, ShouldBeNil)
				So(out.String(), ShouldContainSubstring, "salary-linear-2024.06")
				_, serr := os.Stat(logFile)
				So(serr, ShouldBeNil)
			})
		})

		Convey("When inspect is given no artifact", func() {
			root.SetArgs([]string{"inspect"})
			err := root.ExecuteContext(context.Background())

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the log format is unknown", func() {
			root.SetArgs([]string{"inspect", "--log-format", "xml", "../../artifacts/salary_model.yaml"})
			err := root.ExecuteContext(context.Background())

			Convey("Then logging setup fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}
