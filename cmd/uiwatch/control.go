package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajsharma/uiwatch/internal/control"
)

// Control command variables.
var (
	controlPort    string
	controlTimeout time.Duration
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Drive the hosted page via CDP",
	Long: `Send synthetic user actions to the page of a running uiwatch window.
The resulting events show up in the action log like real input.

Example:
  uiwatch control click
  uiwatch control type --text "hello"
  uiwatch control key --key Enter
  uiwatch control scroll --by 400
  uiwatch control eval --js "document.body.innerText.length"`,
}

// withController attaches to the hosted page and runs fn against it.
func withController(fn func(ctrl *control.Controller) error) error {
	ctrl, err := control.NewController(context.Background(), controlPort)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer ctrl.Close()
	ctrl.SetTimeout(controlTimeout)

	return fn(ctrl)
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the hosted page",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.Reload(); err != nil {
				return fmt.Errorf("reload failed: %w", err)
			}
			fmt.Println("Reloaded")
			return nil
		})
	},
}

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")

		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.Click(selector); err != nil {
				return fmt.Errorf("click failed: %w", err)
			}
			fmt.Printf("Clicked: %s\n", selector)
			return nil
		})
	},
}

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Type text into an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")
		text, _ := cmd.Flags().GetString("text")
		if text == "" {
			return fmt.Errorf("--text is required")
		}

		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.Type(selector, text); err != nil {
				return fmt.Errorf("type failed: %w", err)
			}
			fmt.Printf("Typed into %s: %s\n", selector, text)
			return nil
		})
	},
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Press a single key",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			return fmt.Errorf("--key is required")
		}

		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.KeyPress(key); err != nil {
				return fmt.Errorf("key press failed: %w", err)
			}
			fmt.Printf("Pressed: %s\n", key)
			return nil
		})
	},
}

var scrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Scroll the page or an element into view",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")
		by, _ := cmd.Flags().GetInt("by")
		if selector == "" && by == 0 {
			return fmt.Errorf("--selector or --by is required")
		}

		return withController(func(ctrl *control.Controller) error {
			if selector != "" {
				if err := ctrl.ScrollTo(selector); err != nil {
					return fmt.Errorf("scroll failed: %w", err)
				}
				fmt.Printf("Scrolled to: %s\n", selector)
				return nil
			}

			if err := ctrl.ScrollBy(by); err != nil {
				return fmt.Errorf("scroll failed: %w", err)
			}
			fmt.Printf("Scrolled by: %d\n", by)
			return nil
		})
	},
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Focus an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")

		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.Focus(selector); err != nil {
				return fmt.Errorf("focus failed: %w", err)
			}
			fmt.Printf("Focused: %s\n", selector)
			return nil
		})
	},
}

var blurCmd = &cobra.Command{
	Use:   "blur",
	Short: "Remove focus from an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")

		return withController(func(ctrl *control.Controller) error {
			if err := ctrl.Blur(selector); err != nil {
				return fmt.Errorf("blur failed: %w", err)
			}
			fmt.Printf("Blurred: %s\n", selector)
			return nil
		})
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate JavaScript",
	RunE: func(cmd *cobra.Command, args []string) error {
		js, _ := cmd.Flags().GetString("js")
		if js == "" {
			return fmt.Errorf("--js is required")
		}

		return withController(func(ctrl *control.Controller) error {
			result, err := ctrl.Evaluate(js)
			if err != nil {
				return fmt.Errorf("eval failed: %w", err)
			}
			fmt.Println(result)
			return nil
		})
	},
}

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Get page title",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl *control.Controller) error {
			title, err := ctrl.GetTitle()
			if err != nil {
				return fmt.Errorf("failed to get title: %w", err)
			}
			fmt.Println(title)
			return nil
		})
	},
}

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Get current URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl *control.Controller) error {
			url, err := ctrl.GetURL()
			if err != nil {
				return fmt.Errorf("failed to get URL: %w", err)
			}
			fmt.Println(url)
			return nil
		})
	},
}

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Get text content of an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		selector, _ := cmd.Flags().GetString("selector")

		return withController(func(ctrl *control.Controller) error {
			text, err := ctrl.GetText(selector)
			if err != nil {
				return fmt.Errorf("failed to get text: %w", err)
			}
			fmt.Println(text)
			return nil
		})
	},
}

func init() {
	controlCmd.PersistentFlags().StringVarP(&controlPort, "port", "p", "9222", "Chrome remote debugging port")
	controlCmd.PersistentFlags().DurationVarP(&controlTimeout, "timeout", "t", 30*time.Second, "Command timeout")

	for _, c := range []*cobra.Command{clickCmd, typeCmd, focusCmd, blurCmd, textCmd} {
		c.Flags().String("selector", control.DefaultSelector, "CSS selector of element")
	}
	typeCmd.Flags().String("text", "", "Text to type")
	keyCmd.Flags().String("key", "", `Key to press, such as "a" or "Enter"`)
	scrollCmd.Flags().String("selector", "", "CSS selector of element to scroll into view")
	scrollCmd.Flags().Int("by", 0, "Pixels to scroll vertically")
	evalCmd.Flags().String("js", "", "JavaScript to evaluate")

	controlCmd.AddCommand(reloadCmd)
	controlCmd.AddCommand(clickCmd)
	controlCmd.AddCommand(typeCmd)
	controlCmd.AddCommand(keyCmd)
	controlCmd.AddCommand(scrollCmd)
	controlCmd.AddCommand(focusCmd)
	controlCmd.AddCommand(blurCmd)
	controlCmd.AddCommand(evalCmd)
	controlCmd.AddCommand(titleCmd)
	controlCmd.AddCommand(urlCmd)
	controlCmd.AddCommand(textCmd)
}
