package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benmeehan/location-tracker/internal/presentation"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live map view in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := "ws" + strings.TrimPrefix(baseURL(), "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return fmt.Errorf("connect to %s: %w", url, err)
		}
		defer conn.Close()

		stopCh := make(chan os.Signal, 1)
		signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-stopCh
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}()

		renderer := presentation.NewTerminalRenderer(os.Stdout)
		for {
			var msg presentation.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) || strings.Contains(err.Error(), "use of closed network connection") {
					return nil
				}
				return err
			}

			switch msg.Type {
			case presentation.MessageView:
				if msg.View != nil {
					fmt.Println(color.New(color.Faint).Sprint(strings.Repeat("-", 40)))
					renderer.Render(*msg.View)
				}
			case presentation.MessageError:
				fmt.Println(color.RedString("error: %s", msg.Message))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
