package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "subscription":
		handleSubscription(args)
	case "workspace":
		handleWorkspace(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleSubscription(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia subscription <plans|create|get|cancel|resume>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "plans":
		listPlans()
	case "create":
		createSubscription(args[1:])
	case "get":
		getSubscription(args[1:])
	case "cancel":
		subscriptionAction(args[1:], "cancel")
	case "resume":
		subscriptionAction(args[1:], "resume")
	default:
		fmt.Printf("unknown subscription command: %s\n", subCmd)
	}
}

func handleWorkspace(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia workspace <request|list|get|destroy>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "request":
		requestWorkspace(args[1:])
	case "list":
		listWorkspaces()
	case "get":
		getWorkspace(args[1:])
	case "destroy":
		destroyWorkspace(args[1:])
	default:
		fmt.Printf("unknown workspace command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (min 8 characters)")

	fs.Parse(args)

	if *email == "" || *name == "" || *password == "" {
		fmt.Println("Error: email, name, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"email":    *email,
		"name":     *name,
		"password": *password,
	}

	result, status, err := postJSON("/api/auth/register", payload, false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 201 {
		fmt.Printf("✓ Account registered: %s\n", *email)
		if token, ok := result["accessToken"].(string); ok {
			saveToken(token)
		}
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result["error"])
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	result, status, err := postJSON("/api/auth/login", payload, false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 200 {
		if token, ok := result["accessToken"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result["error"])
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Subscription commands
func listPlans() {
	result, _, err := getJSON("/api/subscriptions/plans")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	plans, _ := result["plans"].([]interface{})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tINTERVAL")
	for _, p := range plans {
		plan, _ := p.(map[string]interface{})
		fmt.Fprintf(w, "%v\t%v\t%v %v\t%v\n",
			plan["id"], plan["name"], plan["currency"], plan["price"], plan["interval"])
	}
	w.Flush()
}

func createSubscription(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	plan := fs.String("plan", "", "plan ID (see 'subscription plans')")
	email := fs.String("email", "", "customer email")
	name := fs.String("name", "", "customer name")
	workspace := fs.String("workspace", "", "workspace name")

	fs.Parse(args)

	if *plan == "" || *email == "" || *name == "" || *workspace == "" {
		fmt.Println("Error: plan, email, name, and workspace are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"planId":        *plan,
		"customerEmail": *email,
		"customerName":  *name,
		"workspaceName": *workspace,
	}
	result, status, err := postJSON("/api/subscriptions", payload, false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 202 {
		sub, _ := result["subscription"].(map[string]interface{})
		fmt.Printf("✓ Subscription created: %v (status: %v)\n", sub["id"], sub["status"])
		if url, ok := result["paymentUrl"].(string); ok {
			fmt.Printf("  Complete payment at: %s\n", url)
		}
	} else {
		fmt.Printf("✗ Subscription failed: %v\n", result["error"])
	}
}

func getSubscription(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia subscription get <subscription-id>")
		return
	}
	result, status, err := getJSONStatus("/api/subscriptions/" + args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != 200 {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	printSubscription(result)
}

func subscriptionAction(args []string, action string) {
	if len(args) < 1 {
		fmt.Printf("Usage: qorlia subscription %s <subscription-id>\n", action)
		return
	}
	result, status, err := postJSON("/api/subscriptions/"+args[0]+"/"+action, nil, false)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != 200 {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	printSubscription(result)
}

func printSubscription(result map[string]interface{}) {
	sub, _ := result["subscription"].(map[string]interface{})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAN\tSTATUS\tWORKSPACE")
	fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", sub["id"], sub["planId"], sub["status"], sub["workspaceName"])
	w.Flush()
}

// Workspace commands
func requestWorkspace(args []string) {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	subscription := fs.String("subscription", "", "subscription ID")
	stack := fs.String("stack", "", "stack to deploy (bahmni, erpnext, bundle)")
	domain := fs.String("domain", "", "workspace domain")
	region := fs.String("region", "", "deployment region (optional)")

	fs.Parse(args)

	if *subscription == "" || *stack == "" || *domain == "" {
		fmt.Println("Error: subscription, stack, and domain are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"subscriptionId": *subscription,
		"stack":          *stack,
		"domain":         *domain,
	}
	if *region != "" {
		payload["region"] = *region
	}

	result, status, err := postJSON("/api/provisioning/workspaces", payload, true)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 202 {
		fmt.Printf("✓ Workspace queued: %v\n", result["jobId"])
	} else {
		fmt.Printf("✗ Request failed: %v\n", result["error"])
	}
}

func listWorkspaces() {
	result, status, err := getJSONAuth("/api/provisioning/workspaces")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != 200 {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}

	jobs, _ := result["jobs"].([]interface{})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTACK\tDOMAIN\tREGION\tSTATUS")
	for _, j := range jobs {
		job, _ := j.(map[string]interface{})
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			job["id"], job["stack"], job["domain"], job["region"], job["status"])
	}
	w.Flush()
}

func getWorkspace(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia workspace get <job-id>")
		return
	}
	result, status, err := getJSONAuth("/api/provisioning/workspaces/" + args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != 200 {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	job, _ := result["job"].(map[string]interface{})
	fmt.Printf("ID:      %v\nStack:   %v\nDomain:  %v\nRegion:  %v\nStatus:  %v\n",
		job["id"], job["stack"], job["domain"], job["region"], job["status"])
}

func destroyWorkspace(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: qorlia workspace destroy <job-id>")
		return
	}
	result, status, err := postJSON("/api/provisioning/workspaces/"+args[0]+"/destroy", nil, true)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != 200 {
		fmt.Printf("✗ %v\n", result["error"])
		return
	}
	job, _ := result["job"].(map[string]interface{})
	fmt.Printf("✓ Workspace destroyed: %v\n", job["id"])
}

// Helper functions
func postJSON(path string, payload map[string]string, authed bool) (map[string]interface{}, int, error) {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest("POST", getAPIURL()+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		addAuthHeader(req)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func getJSON(path string) (map[string]interface{}, int, error) {
	return doGet(path, false)
}

func getJSONStatus(path string) (map[string]interface{}, int, error) {
	return doGet(path, false)
}

func getJSONAuth(path string) (map[string]interface{}, int, error) {
	return doGet(path, true)
}

func doGet(path string, authed bool) (map[string]interface{}, int, error) {
	req, err := http.NewRequest("GET", getAPIURL()+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if authed {
		addAuthHeader(req)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func getAPIURL() string {
	if url := os.Getenv("QORLIA_API"); url != "" {
		return url
	}
	return "http://localhost:4000"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.qorlia/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.qorlia", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Qorlia CLI

Usage:
  qorlia <command> [options]

Commands:
  auth          Account authentication (register, login, logout, who)
  subscription  Subscription operations (plans, create, get, cancel, resume)
  workspace     Workspace provisioning (request, list, get, destroy)
  help          Show this help message

Environment Variables:
  QORLIA_API    API endpoint (default: http://localhost:4000)

Examples:
  qorlia auth register -email admin@clinic.example -name "Clinic Admin" -password secret123
  qorlia subscription plans
  qorlia subscription create -plan bahmni-managed -email admin@clinic.example -name "City Clinic" -workspace city-clinic
  qorlia workspace request -subscription <id> -stack bahmni -domain clinic.qorlia.app
`)
}
