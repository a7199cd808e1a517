package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/common"
	"github.com/AlexZinkM/canopy-wallet/internal/crypto"
	"github.com/AlexZinkM/canopy-wallet/internal/model"
	"github.com/AlexZinkM/canopy-wallet/internal/wallet"

	"github.com/jessevdk/go-flags"
)

func registerCommands(p *flags.Parser) {
	add := func(name, short string, data interface{}) {
		if _, err := p.AddCommand(name, short, short, data); err != nil {
			panic(err)
		}
	}
	add("list", "List wallets with balances", &listCommand{})
	add("generate", "Print a new 24-word seed phrase", &generateCommand{})
	add("import", "Import a wallet from a seed phrase", &importCommand{})
	add("send", "Send CNPY from a wallet", &sendCommand{})
	add("status", "Show the status of a transaction", &statusCommand{})
	add("history", "Show transaction history", &historyCommand{})
	add("rename", "Change a wallet's label", &renameCommand{})
	add("activate", "Mark a wallet active", &activeCommand{Active: true})
	add("deactivate", "Mark a wallet inactive", &activeCommand{Active: false})
	add("remove", "Delete a wallet", &removeCommand{})
	add("passwd", "Re-encrypt a wallet under a new password", &passwdCommand{})
	add("qr", "Write a QR code of a wallet address", &qrCommand{})
	add("fee", "Show the estimated send fee", &feeCommand{})
	add("info", "Show backend health and chain overview", &infoCommand{})
}

type listCommand struct{}

func (c *listCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		wallets := a.syncWallets()
		if err := a.store.RefreshBalances(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: some balances could not be refreshed:", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tLABEL\tACTIVE\tBALANCE")
		for _, wl := range wallets {
			balance := "-"
			if amount, ok := a.store.Balance(wl.Address); ok {
				balance = common.MicroToCNPY(amount) + " " + common.Ticker
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", wl.Address, wl.Label, wl.Active, balance)
		}
		return w.Flush()
	})
}

type generateCommand struct{}

func (c *generateCommand) Execute(_ []string) error {
	phrase, err := crypto.GenerateSeedPhrase()
	if err != nil {
		return err
	}
	fmt.Println(phrase)
	fmt.Fprintln(os.Stderr, "Write these words down. They are the only way to recover the wallet.")
	return nil
}

type importCommand struct {
	Label string `short:"l" long:"label" description:"Wallet label"`
}

func (c *importCommand) Execute(_ []string) error {
	phrase, err := readSecret("Seed phrase: ")
	if err != nil {
		return err
	}
	defer clear(phrase)

	password, err := newPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	return withApp(func(a *app) error {
		rec, err := a.store.ImportSeedPhrase(ctx, phrase, password, c.Label)
		if err != nil {
			return err
		}
		fmt.Println("Imported", rec.Address)
		return nil
	})
}

type sendCommand struct {
	From   string `long:"from" required:"true" description:"Sender address"`
	To     string `long:"to" required:"true" description:"Recipient address"`
	Amount string `long:"amount" required:"true" description:"Amount in CNPY, e.g. 10.5"`
	Fee    string `long:"fee" description:"Fee in CNPY (default from DEFAULT_FEE_MICRO)"`
	Memo   string `long:"memo" description:"Optional memo"`
}

func (c *sendCommand) Execute(_ []string) error {
	amount, err := common.CNPYToMicro(c.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	return withApp(func(a *app) error {
		fee := a.cfg.DefaultFeeMicro
		if c.Fee != "" {
			if fee, err = common.CNPYToMicro(c.Fee); err != nil {
				return fmt.Errorf("invalid fee: %w", err)
			}
		}

		a.syncWallets()
		if err := unlock(a, c.From); err != nil {
			return err
		}
		defer a.store.LockWallet(c.From)

		res, err := a.store.SendTransaction(ctx, wallet.SendRequest{
			From:   c.From,
			To:     c.To,
			Amount: amount,
			Fee:    fee,
			Memo:   c.Memo,
		})
		if res != nil {
			fmt.Printf("Transaction %s: %s\n", res.TransactionHash, res.Status)
		}
		if errors.Is(err, wallet.ErrSubmissionTimeout) {
			fmt.Fprintln(os.Stderr, "Still pending. Check later with: status --hash", res.TransactionHash)
			return nil
		}
		return err
	})
}

type statusCommand struct {
	Hash string `long:"hash" required:"true" description:"Transaction hash"`
	Wait bool   `short:"w" long:"wait" description:"Poll until the transaction settles"`
}

func (c *statusCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		if c.Wait {
			status, err := a.store.WaitForCompletion(ctx, c.Hash)
			fmt.Println(status)
			return err
		}
		resp, err := a.client.TransactionStatus(ctx, c.Hash)
		if err != nil {
			return err
		}
		fmt.Println(resp.Status.Normalize())
		return nil
	})
}

type historyCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
	Type    string `long:"type" choice:"send" choice:"receive" description:"Only this transaction type"`
	Since   string `long:"since" description:"Only transactions at or after this RFC3339 time"`
	Limit   int    `long:"limit" description:"Page size"`
	Page    int    `long:"page" description:"Page number"`
	Pending bool   `long:"pending" description:"Only pending transactions"`
}

func (c *historyCommand) Execute(_ []string) error {
	q := model.HistoryQuery{Address: c.Address, Limit: c.Limit, Page: c.Page}
	if c.Type != "" {
		t := model.TransactionType(c.Type)
		q.Type = &t
	}
	if c.Since != "" {
		since, err := time.Parse(time.RFC3339, c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		q.From = &since
	}

	return withApp(func(a *app) error {
		chainID := a.cfg.ChainID
		q.ChainID = &chainID

		var (
			resp *model.HistoryResponse
			err  error
		)
		if c.Pending {
			resp, err = a.client.PendingTransactions(ctx, q)
		} else {
			resp, err = a.client.TransactionHistory(ctx, q)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tHASH\tAMOUNT\tFEE\tSTATUS")
		for _, tx := range resp.Transactions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Timestamp.Format(time.RFC3339), tx.Type, tx.Hash,
				common.MicroToCNPY(tx.Amount), common.MicroToCNPY(tx.Fee), tx.Status.Normalize())
		}
		return w.Flush()
	})
}

type renameCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
	Label   string `long:"label" required:"true" description:"New label"`
}

func (c *renameCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		a.syncWallets()
		return a.store.RenameWallet(ctx, c.Address, c.Label)
	})
}

type activeCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
	Active  bool   `no-flag:"true"`
}

func (c *activeCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		a.syncWallets()
		return a.store.SetActive(ctx, c.Address, c.Active)
	})
}

type removeCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
	Force   bool   `short:"f" long:"force" description:"Remove without prompt"`
}

func (c *removeCommand) Execute(_ []string) error {
	if !c.Force {
		fmt.Printf("Delete wallet %s? Without its seed phrase it cannot be recovered. [y/N] ", c.Address)
		var resp string
		_, _ = fmt.Scanln(&resp)
		if !yes(resp) {
			return nil
		}
	}
	return withApp(func(a *app) error {
		a.syncWallets()
		return a.store.RemoveWallet(ctx, c.Address)
	})
}

type passwdCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
}

func (c *passwdCommand) Execute(_ []string) error {
	old, err := readSecret("Current password: ")
	if err != nil {
		return err
	}
	defer clear(old)

	password, err := newPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	return withApp(func(a *app) error {
		a.syncWallets()
		return a.store.ChangePassword(ctx, c.Address, old, password)
	})
}

type qrCommand struct {
	Address string `long:"address" required:"true" description:"Wallet address"`
	Out     string `short:"o" long:"out" default:"address.png" description:"Output PNG file"`
}

func (c *qrCommand) Execute(_ []string) error {
	if err := wallet.WriteAddressQR(c.Address, c.Out); err != nil {
		return err
	}
	fmt.Println("Wrote", c.Out)
	return nil
}

type feeCommand struct{}

func (c *feeCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		est, err := a.client.EstimateFee(ctx, a.cfg.ChainID)
		if err != nil {
			return err
		}
		fmt.Println(common.MicroToCNPY(est.Fee), common.Ticker)
		return nil
	})
}

type infoCommand struct{}

func (c *infoCommand) Execute(_ []string) error {
	return withApp(func(a *app) error {
		health, err := a.client.Health(ctx)
		if err != nil {
			return err
		}
		ov, err := a.client.Overview(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Backend: %s\nChain:   %d\nHeight:  %d\n", health.Status, ov.ChainID, ov.Height)
		return nil
	})
}

func unlock(a *app, address string) error {
	password, err := readSecret("Password: ")
	if err != nil {
		return err
	}
	defer clear(password)
	return a.store.UnlockWallet(address, password)
}

// newPassword prompts twice and requires both entries to match.
func newPassword() ([]byte, error) {
	first, err := readSecret("New password: ")
	if err != nil {
		return nil, err
	}
	second, err := readSecret("Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}

func yes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
