package main

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRootCommand(t *testing.T) {
	Convey("Given the savor command tree", t, func() {
		root := newRootCmd()

		Convey("Then the three pipeline stages are registered", func() {
			names := make([]string, 0, 3)
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			So(names, ShouldContain, "fetch")
			So(names, ShouldContain, "rank")
			So(names, ShouldContain, "run")
		})

		Convey("And the override flags are declared", func() {
			So(root.PersistentFlags().Lookup("top-k"), ShouldNotBeNil)
			So(root.PersistentFlags().Lookup("workers"), ShouldNotBeNil)
			So(root.PersistentFlags().Lookup("verify-remote"), ShouldNotBeNil)
		})
	})
}
