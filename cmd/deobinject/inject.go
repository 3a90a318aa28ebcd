package main

import (
	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"deobinject/internal/api"
	"deobinject/internal/config"
	"deobinject/internal/inject"
	"deobinject/internal/output"
	"deobinject/internal/render"
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Patch the vanilla classes and write them with a report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		listings, _ := cmd.Flags().GetBool("listings")
		return runInject(conf, listings)
	},
}

func init() {
	f := injectCmd.Flags()
	f.String("vanilla", "", "vanilla class directory or jar")
	f.String("deob", "", "annotated deobfuscated class directory or jar")
	f.String("contract", "", "API contract YAML")
	f.StringP("out", "o", "", "output directory")
	f.String("client-class", "", "vanilla class receiving static accessors")
	f.String("annotations", "", "annotation package")
	f.Bool("verify-getters", false, "check getter constants against vanilla multiplications")
	f.Bool("listings", false, "write listings of injected methods")
	viper.BindPFlag("input.vanilla", f.Lookup("vanilla"))
	viper.BindPFlag("input.deobfuscated", f.Lookup("deob"))
	viper.BindPFlag("input.contract", f.Lookup("contract"))
	viper.BindPFlag("output", f.Lookup("out"))
	viper.BindPFlag("inject.client-class", f.Lookup("client-class"))
	viper.BindPFlag("inject.annotation-package", f.Lookup("annotations"))
	viper.BindPFlag("inject.verify-getters", f.Lookup("verify-getters"))
}

func runInject(conf *config.Config, listings bool) error {
	contract, err := api.Load(conf.Input.Contract)
	if err != nil {
		return err
	}
	vanilla, err := output.LoadGroup(conf.Input.Vanilla)
	if err != nil {
		return err
	}
	deobfuscated, err := output.LoadGroup(conf.Input.Deobfuscated)
	if err != nil {
		return err
	}

	inj := inject.New(vanilla, deobfuscated, contract, conf.Options())
	report, err := inj.Run()
	if err != nil {
		return errors.Wrap(err, "inject")
	}

	if err := output.SaveGroup(conf.Output, vanilla, &report.Diags); err != nil {
		return err
	}
	if err := output.WriteReportJSON(conf.Output, report); err != nil {
		return err
	}

	injected := make(map[string][]string)
	for _, ai := range report.Interfaces {
		injected[ai.Class] = append(injected[ai.Class], ai.Interface)
	}
	dot := render.HierarchyDOT(vanilla, injected, "injected interfaces", render.NASA)
	if err := output.WriteDOT(conf.Output, "hierarchy", dot); err != nil {
		return err
	}

	if listings {
		for _, am := range report.Methods {
			m := vanilla.FindClass(am.Class).FindMethod(am.Name, am.Desc)
			if err := output.WriteListing(conf.Output, m); err != nil {
				return err
			}
		}
	}

	for _, d := range report.Diags.Items() {
		log.Debug(d.String())
	}
	log.WithFields(log.Fields{
		"out":         conf.Output,
		"methods":     len(report.Methods),
		"diagnostics": report.Diags.Len(),
	}).Info("wrote injected classes")
	return nil
}
